package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/walletkit/validation"
	"github.com/kbukum/walletkit/wallet"
)

// ErrCorrupt marks a persisted record that cannot be used.
var ErrCorrupt = errors.New("session: corrupt record")

// Encode serializes a session as versioned JSON.
func Encode(p wallet.PersistedSession) ([]byte, error) {
	p.Version = wallet.PersistedVersion
	if p.Wallets == nil {
		p.Wallets = []wallet.PersistedWallet{}
	}
	return json.Marshal(p)
}

// Decode parses and checks a persisted record. Every failure wraps
// ErrCorrupt, including a record written by another schema version.
func Decode(data []byte) (wallet.PersistedSession, error) {
	var p wallet.PersistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		return Empty(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if p.Version != wallet.PersistedVersion {
		return Empty(), fmt.Errorf("%w: unsupported version %d", ErrCorrupt, p.Version)
	}
	if err := Check(p); err != nil {
		return Empty(), err
	}
	return normalize(p), nil
}

// Check validates a decoded record: well-formed kinds and addresses, no
// duplicate (kind, address) pair and an active address that is listed.
func Check(p wallet.PersistedSession) error {
	if err := validation.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	state := wallet.SessionState{Active: p.Active}
	for _, w := range p.Wallets {
		state.Wallets = append(state.Wallets, wallet.ConnectedWallet{Kind: w.Kind, Address: w.Address})
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func normalize(p wallet.PersistedSession) wallet.PersistedSession {
	for i := range p.Wallets {
		p.Wallets[i].Address = wallet.NormalizeAddress(string(p.Wallets[i].Address))
	}
	if !p.Active.IsZero() {
		p.Active = wallet.NormalizeAddress(string(p.Active))
	}
	return p
}
