package adapter

import (
	"sync"

	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/wallet"
)

// Base carries the provider-independent parts of the Adapter contract.
// Concrete adapters embed it.
type Base struct {
	kind wallet.Kind

	mu        sync.Mutex
	pending   bool
	connected bool
	account   wallet.Address
	chain     wallet.ChainID

	handlerMu  sync.Mutex
	handler    Handler
	handlerSeq uint64
}

// NewBase creates a Base for kind.
func NewBase(kind wallet.Kind) *Base {
	return &Base{kind: kind}
}

// Kind returns the provider family.
func (b *Base) Kind() wallet.Kind { return b.kind }

// BeginConnect marks a connect request in flight. The returned func must be
// called when the request settles. A second call before that fails with
// ALREADY_PENDING.
func (b *Base) BeginConnect() (done func(), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending {
		return nil, errors.AlreadyPending(string(b.kind))
	}
	b.pending = true
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.pending = false
			b.mu.Unlock()
		})
	}, nil
}

// Pending reports whether a connect request is in flight.
func (b *Base) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// SetConnected records a successful (re)connection.
func (b *Base) SetConnected(account wallet.Address, chain wallet.ChainID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	b.account = account
	b.chain = chain
}

// SetAccount updates the exposed account while connected.
func (b *Base) SetAccount(account wallet.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		b.account = account
	}
}

// SetChain updates the current chain while connected.
func (b *Base) SetChain(chain wallet.ChainID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		b.chain = chain
	}
}

// ClearConnection forgets the local association.
func (b *Base) ClearConnection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	b.account = ""
	b.chain = 0
}

// Connected reports whether the adapter holds an association.
func (b *Base) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Account returns the exposed account or PROVIDER_UNAVAILABLE.
func (b *Base) Account() (wallet.Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return "", errors.ProviderUnavailable(string(b.kind))
	}
	return b.account, nil
}

// Chain returns the current chain or PROVIDER_UNAVAILABLE.
func (b *Base) Chain() (wallet.ChainID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return 0, errors.ProviderUnavailable(string(b.kind))
	}
	return b.chain, nil
}

// Subscribe installs h as the only handler. Unsubscribing a handler that
// has since been replaced is a no-op.
func (b *Base) Subscribe(h Handler) func() {
	b.handlerMu.Lock()
	b.handlerSeq++
	seq := b.handlerSeq
	b.handler = h
	b.handlerMu.Unlock()

	return func() {
		b.handlerMu.Lock()
		defer b.handlerMu.Unlock()
		if b.handlerSeq == seq {
			b.handler = nil
		}
	}
}

// Emit delivers ev to the current handler exactly once. Events emitted with
// no handler installed are dropped.
func (b *Base) Emit(ev wallet.ProviderEvent) bool {
	if ev.Kind == "" {
		ev.Kind = b.kind
	}
	b.handlerMu.Lock()
	h := b.handler
	b.handlerMu.Unlock()
	if h == nil {
		return false
	}
	h(ev)
	return true
}
