package session

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/wallet"
)

// MemoryStore is an in-memory Store for tests. It round-trips through the
// codec so it sees the same data a real backend would.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	failErr error
	saves   int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed stores p as if it had been saved by an earlier run.
func (m *MemoryStore) Seed(p wallet.PersistedSession) {
	data, _ := Encode(p)
	m.SetRaw(data)
}

// SetRaw stores raw bytes, which may be deliberately corrupt.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// FailSaves makes every following Save fail with err. Nil restores saving.
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Saves returns how many Save calls succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Load(_ context.Context) (wallet.PersistedSession, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return Empty(), nil
	}
	p, err := Decode(data)
	if errors.Is(err, ErrCorrupt) {
		return Empty(), nil
	}
	return p, err
}

func (m *MemoryStore) Save(_ context.Context, state wallet.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return apperrors.PersistenceFailure("save", m.failErr)
	}
	data, err := Encode(state.Persisted())
	if err != nil {
		return apperrors.PersistenceFailure("save", err)
	}
	m.data = data
	m.saves++
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
