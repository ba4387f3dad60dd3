// Package mock provides a scriptable in-process wallet adapter. Tests use it
// to drive the session manager deterministically; walletd exposes it as the
// "mock" adapter type for local development without a real wallet.
package mock

import (
	"context"
	"sync"

	"github.com/kbukum/walletkit/adapter"
	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/wallet"
)

// Operation names counted by Calls.
const (
	OpConnect    = "connect"
	OpReconnect  = "reconnect"
	OpDisconnect = "disconnect"
)

// Adapter is a scriptable adapter.Adapter.
type Adapter struct {
	*adapter.Base

	mu         sync.Mutex
	account    wallet.Address
	chain      wallet.ChainID
	connectErr error
	silent     bool
	gate       chan struct{}
	entered    chan struct{}
	calls      map[string]int
}

var _ adapter.Adapter = (*Adapter)(nil)

// New creates a mock adapter for kind that approves every connect with the
// account and chain set through SetAccount.
func New(kind wallet.Kind) *Adapter {
	return &Adapter{
		Base:  adapter.NewBase(kind),
		calls: make(map[string]int),
	}
}

// Factory builds a mock adapter from walletd configuration.
// Recognized options: address, chain_id, silent.
func Factory(kind wallet.Kind, cfg map[string]any) (adapter.Adapter, error) {
	chain, err := adapter.ConfigUint(cfg, "chain_id")
	if err != nil {
		return nil, err
	}
	a := New(kind)
	a.SetAccount(wallet.NormalizeAddress(adapter.ConfigString(cfg, "address")), wallet.ChainID(chain))
	a.AllowSilent(adapter.ConfigBool(cfg, "silent"))
	return a, nil
}

// SetAccount sets what the provider reports on the next (re)connect.
func (a *Adapter) SetAccount(account wallet.Address, chain wallet.ChainID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.account = account
	a.chain = chain
}

// FailConnect makes Connect and Reconnect fail with err until cleared with nil.
func (a *Adapter) FailConnect(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connectErr = err
}

// AllowSilent toggles support for silent reconnection.
func (a *Adapter) AllowSilent(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.silent = ok
}

// Block makes subsequent Connect calls wait for Release. The returned
// channel receives once for every Connect that reaches the gate.
func (a *Adapter) Block() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gate = make(chan struct{})
	a.entered = make(chan struct{}, 16)
	return a.entered
}

// Release lets blocked Connect calls proceed.
func (a *Adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gate != nil {
		close(a.gate)
		a.gate = nil
	}
}

// Calls returns how many times op reached the provider.
func (a *Adapter) Calls(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[op]
}

// Connect approves with the scripted account unless a failure is scripted.
func (a *Adapter) Connect(ctx context.Context) (wallet.Address, error) {
	done, err := a.BeginConnect()
	if err != nil {
		return "", err
	}
	defer done()

	a.mu.Lock()
	a.calls[OpConnect]++
	gate, entered := a.gate, a.entered
	a.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return "", errors.UserRejected(string(a.Kind())).WithCause(ctx.Err())
		}
	}
	return a.settle()
}

// Reconnect succeeds only when silent reconnection is allowed.
func (a *Adapter) Reconnect(ctx context.Context) (wallet.Address, error) {
	a.mu.Lock()
	a.calls[OpReconnect]++
	silent := a.silent
	a.mu.Unlock()

	if !silent {
		return "", errors.SilentUnsupported(string(a.Kind()))
	}
	return a.settle()
}

func (a *Adapter) settle() (wallet.Address, error) {
	a.mu.Lock()
	account, chain, failure := a.account, a.chain, a.connectErr
	a.mu.Unlock()

	if failure != nil {
		return "", failure
	}
	if account.IsZero() {
		return "", errors.UserRejected(string(a.Kind()))
	}
	a.SetConnected(account, chain)
	return account, nil
}

// Disconnect clears the association.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	a.calls[OpDisconnect]++
	a.mu.Unlock()
	a.ClearConnection()
	return nil
}

// CurrentAccount reports the connected account.
func (a *Adapter) CurrentAccount(ctx context.Context) (wallet.Address, error) {
	return a.Account()
}

// CurrentChain reports the connected chain.
func (a *Adapter) CurrentChain(ctx context.Context) (wallet.ChainID, error) {
	return a.Chain()
}

// Emit simulates a provider notification: the adapter's view of the
// provider is updated first, then the event is delivered.
func (a *Adapter) Emit(ev wallet.ProviderEvent) bool {
	ev.Kind = a.Kind()
	switch ev.Type {
	case wallet.EventAccountsChanged:
		if len(ev.Addresses) == 0 {
			a.ClearConnection()
		} else {
			a.Base.SetAccount(ev.Addresses[0])
			a.mu.Lock()
			a.account = ev.Addresses[0]
			a.mu.Unlock()
		}
	case wallet.EventChainChanged:
		a.SetChain(ev.ChainID)
		a.mu.Lock()
		a.chain = ev.ChainID
		a.mu.Unlock()
	case wallet.EventDisconnected:
		a.ClearConnection()
	}
	return a.Base.Emit(ev)
}
