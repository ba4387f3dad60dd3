// Package notify carries session change notifications from the wallet
// session manager to its consumers (toasts, theme policy, SSE clients).
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/walletkit/wallet"
)

// Type names a session change.
type Type string

// Event types.
const (
	TypeWalletConnected    Type = "wallet.connected"
	TypeWalletSwitched     Type = "wallet.switched"
	TypeWalletDisconnected Type = "wallet.disconnected"
	TypeChainObserved      Type = "chain.observed"
)

// Event is one session change. Which fields are set depends on Type:
// connected carries kind and address, switched carries the new active
// address, disconnected carries kind, chain.observed carries address and
// chain. Extra fields are filled in when known.
type Event struct {
	ID      string         `json:"id"`
	Type    Type           `json:"type"`
	Kind    wallet.Kind    `json:"kind,omitempty"`
	Address wallet.Address `json:"address,omitempty"`
	ChainID wallet.ChainID `json:"chain_id,omitempty"`
	At      time.Time      `json:"at"`
}

func newEvent(t Type) Event {
	return Event{ID: uuid.NewString(), Type: t, At: time.Now().UTC()}
}

// WalletConnected reports a new or replaced connection.
func WalletConnected(kind wallet.Kind, address wallet.Address, chain wallet.ChainID) Event {
	ev := newEvent(TypeWalletConnected)
	ev.Kind, ev.Address, ev.ChainID = kind, address, chain
	return ev
}

// WalletSwitched reports a new active address.
func WalletSwitched(kind wallet.Kind, address wallet.Address) Event {
	ev := newEvent(TypeWalletSwitched)
	ev.Kind, ev.Address = kind, address
	return ev
}

// WalletDisconnected reports that kind's wallet left the session.
func WalletDisconnected(kind wallet.Kind, address wallet.Address) Event {
	ev := newEvent(TypeWalletDisconnected)
	ev.Kind, ev.Address = kind, address
	return ev
}

// ChainObserved reports the chain a connected wallet is on.
func ChainObserved(kind wallet.Kind, address wallet.Address, chain wallet.ChainID) Event {
	ev := newEvent(TypeChainObserved)
	ev.Kind, ev.Address, ev.ChainID = kind, address, chain
	return ev
}

// Sink consumes events synchronously. Sinks must not call back into
// commands of the component that publishes to them.
type Sink interface {
	Notify(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

// Notify calls f(ev).
func (f SinkFunc) Notify(ev Event) { f(ev) }
