package wallet

import (
	"fmt"
	"slices"
)

// SessionState is the authoritative session record. Wallets are kept in
// connection order; Active, when set, is the address of one of them.
type SessionState struct {
	Wallets []ConnectedWallet `json:"wallets"`
	Active  Address           `json:"active,omitempty"`
}

// Clone returns a deep copy safe to hand to readers.
func (s SessionState) Clone() SessionState {
	return SessionState{
		Wallets: slices.Clone(s.Wallets),
		Active:  s.Active,
	}
}

// Validate checks the session invariants: no duplicate (kind, address)
// pair and an active address that belongs to a connected wallet.
func (s SessionState) Validate() error {
	for i, w := range s.Wallets {
		for _, other := range s.Wallets[i+1:] {
			if other.Matches(w.Kind, w.Address) {
				return fmt.Errorf("duplicate wallet %s/%s", w.Kind, w.Address)
			}
		}
	}
	if !s.Active.IsZero() && s.IndexOfAddress(s.Active) < 0 {
		return fmt.Errorf("active address %s is not connected", s.Active)
	}
	return nil
}

// IndexOfKind returns the position of the wallet connected through kind, or -1.
func (s SessionState) IndexOfKind(kind Kind) int {
	return slices.IndexFunc(s.Wallets, func(w ConnectedWallet) bool { return w.Kind == kind })
}

// IndexOfAddress returns the position of the first wallet with address, or -1.
func (s SessionState) IndexOfAddress(address Address) int {
	return slices.IndexFunc(s.Wallets, func(w ConnectedWallet) bool { return w.Address.Equal(address) })
}

// ActiveWallet returns the wallet whose address is active.
// When two kinds share the active address, the most recently connected wins.
func (s SessionState) ActiveWallet() (ConnectedWallet, bool) {
	if s.Active.IsZero() {
		return ConnectedWallet{}, false
	}
	for i := len(s.Wallets) - 1; i >= 0; i-- {
		if s.Wallets[i].Address.Equal(s.Active) {
			return s.Wallets[i], true
		}
	}
	return ConnectedWallet{}, false
}

// MostRecent returns the last-connected wallet.
func (s SessionState) MostRecent() (ConnectedWallet, bool) {
	if len(s.Wallets) == 0 {
		return ConnectedWallet{}, false
	}
	return s.Wallets[len(s.Wallets)-1], true
}

// Persisted returns the durable subset of the state.
func (s SessionState) Persisted() PersistedSession {
	p := PersistedSession{
		Version: PersistedVersion,
		Wallets: make([]PersistedWallet, 0, len(s.Wallets)),
		Active:  s.Active,
	}
	for _, w := range s.Wallets {
		p.Wallets = append(p.Wallets, PersistedWallet{Kind: w.Kind, Address: w.Address})
	}
	return p
}

// PersistedVersion is the current schema version of PersistedSession.
const PersistedVersion = 1

// PersistedWallet is one (kind, address) record of a persisted session.
type PersistedWallet struct {
	Kind    Kind    `json:"kind" validate:"required,wallet_kind"`
	Address Address `json:"address" validate:"required,eth_addr"`
}

// PersistedSession is what survives a restart: kinds and addresses in
// connection order plus the active address. No chain data, no secrets.
type PersistedSession struct {
	Version int               `json:"version"`
	Wallets []PersistedWallet `json:"wallets" validate:"dive"`
	Active  Address           `json:"active,omitempty" validate:"omitempty,eth_addr"`
}

// Empty reports whether the session has no wallets.
func (p PersistedSession) Empty() bool { return len(p.Wallets) == 0 }
