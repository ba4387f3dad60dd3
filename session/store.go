package session

import (
	"context"

	"github.com/kbukum/walletkit/wallet"
)

// Store persists a session across restarts.
type Store interface {
	// Load returns the persisted session, or an empty one when nothing
	// usable is stored. An error means the backend itself failed.
	Load(ctx context.Context) (wallet.PersistedSession, error)
	// Save overwrites the persisted record with state.
	Save(ctx context.Context, state wallet.SessionState) error
	// Clear removes all persisted records.
	Clear(ctx context.Context) error
}

// Empty returns an empty session at the current schema version.
func Empty() wallet.PersistedSession {
	return wallet.PersistedSession{Version: wallet.PersistedVersion}
}
