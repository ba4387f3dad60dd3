package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/network"
	"github.com/kbukum/walletkit/sse"
	"github.com/kbukum/walletkit/validation"
	"github.com/kbukum/walletkit/wallet"
)

// Sessions is the part of the session manager the HTTP bridge drives.
type Sessions interface {
	Snapshot() wallet.SessionState
	Connect(ctx context.Context, kind wallet.Kind) (wallet.ConnectedWallet, error)
	SwitchActive(ctx context.Context, address wallet.Address) error
	Disconnect(ctx context.Context, kind wallet.Kind) error
	DisconnectAll(ctx context.Context) error
}

// WalletView is one connected wallet as served over HTTP.
type WalletView struct {
	Kind        wallet.Kind    `json:"kind"`
	Address     wallet.Address `json:"address"`
	ChainID     wallet.ChainID `json:"chain_id"`
	ChainName   string         `json:"chain_name,omitempty"`
	ConnectedAt time.Time      `json:"connected_at"`
	Active      bool           `json:"active"`
}

// SessionView is the body of GET /api/session.
type SessionView struct {
	ActiveAddress wallet.Address `json:"active_address,omitempty"`
	ActiveChain   wallet.ChainID `json:"active_chain,omitempty"`
	ChainName     string         `json:"chain_name,omitempty"`
	Theme         network.Theme  `json:"theme"`
	Wallets       []WalletView   `json:"wallets"`
}

// NewSessionView renders a session snapshot.
func NewSessionView(s wallet.SessionState) SessionView {
	view := SessionView{
		ActiveAddress: s.Active,
		Theme:         network.ThemeDefault,
		Wallets:       make([]WalletView, 0, len(s.Wallets)),
	}
	active, hasActive := s.ActiveWallet()
	if hasActive && active.ChainID != 0 {
		view.ActiveChain = active.ChainID
		view.ChainName = network.Name(active.ChainID)
		view.Theme = network.ThemeFor(active.ChainID)
	}
	for _, w := range s.Wallets {
		v := WalletView{
			Kind:        w.Kind,
			Address:     w.Address,
			ChainID:     w.ChainID,
			ConnectedAt: w.ConnectedAt,
			Active:      hasActive && w.Matches(active.Kind, active.Address),
		}
		if w.ChainID != 0 {
			v.ChainName = network.Name(w.ChainID)
		}
		view.Wallets = append(view.Wallets, v)
	}
	return view
}

type switchRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

// WalletHandler serves the session query and command routes.
type WalletHandler struct {
	sessions Sessions
	hub      *sse.Hub
}

// NewWalletHandler creates the handler. hub may be nil, in which case the
// event stream route is not registered.
func NewWalletHandler(sessions Sessions, hub *sse.Hub) *WalletHandler {
	return &WalletHandler{sessions: sessions, hub: hub}
}

// Register mounts the routes under rg.
func (h *WalletHandler) Register(rg gin.IRouter) {
	rg.GET("/session", h.session)
	rg.POST("/wallets/:kind/connect", h.connect)
	rg.POST("/wallets/active", h.switchActive)
	rg.DELETE("/wallets/:kind", h.disconnect)
	rg.DELETE("/wallets", h.disconnectAll)
	if h.hub != nil {
		rg.GET("/events", h.events)
	}
}

func (h *WalletHandler) session(c *gin.Context) {
	RespondOK(c, NewSessionView(h.sessions.Snapshot()))
}

func kindParam(c *gin.Context) (wallet.Kind, error) {
	kind := c.Param("kind")
	if !validation.Var(kind, "wallet_kind") {
		return "", apperrors.InvalidInput("kind", "must be a lower-case wallet kind")
	}
	return wallet.Kind(kind), nil
}

func (h *WalletHandler) connect(c *gin.Context) {
	kind, err := kindParam(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	w, err := h.sessions.Connect(c.Request.Context(), kind)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	active, _ := h.sessions.Snapshot().ActiveWallet()
	RespondOK(c, WalletView{
		Kind:        w.Kind,
		Address:     w.Address,
		ChainID:     w.ChainID,
		ChainName:   chainName(w.ChainID),
		ConnectedAt: w.ConnectedAt,
		Active:      w.Matches(active.Kind, active.Address),
	})
}

func chainName(id wallet.ChainID) string {
	if id == 0 {
		return ""
	}
	return network.Name(id)
}

func (h *WalletHandler) switchActive(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}
	if err := h.sessions.SwitchActive(c.Request.Context(), wallet.NormalizeAddress(req.Address)); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, NewSessionView(h.sessions.Snapshot()))
}

func (h *WalletHandler) disconnect(c *gin.Context) {
	kind, err := kindParam(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	if err := h.sessions.Disconnect(c.Request.Context(), kind); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondNoContent(c)
}

func (h *WalletHandler) disconnectAll(c *gin.Context) {
	if err := h.sessions.DisconnectAll(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondNoContent(c)
}

func (h *WalletHandler) events(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && !validation.Var(kind, "wallet_kind") {
		RespondWithError(c, apperrors.InvalidInput("kind", "must be a lower-case wallet kind"))
		return
	}
	sse.ServeSSE(h.hub, c.Writer, c.Request, sse.NewClientID(wallet.Kind(kind)),
		sse.WithSession(func() any { return NewSessionView(h.sessions.Snapshot()) }),
		sse.WithClientOptions(sse.WithMetadata("remote_addr", c.ClientIP())),
	)
}
