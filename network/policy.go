package network

import (
	"sync"

	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/notify"
	"github.com/kbukum/walletkit/wallet"
)

// ChainSource reports the chain of the active wallet.
type ChainSource interface {
	ActiveChain() (wallet.ChainID, bool)
}

// Policy tracks the theme for the active chain. It is a notify.Sink: on
// every session event it re-reads the active chain from its source.
type Policy struct {
	source ChainSource
	log    *logger.Logger

	mu       sync.RWMutex
	theme    Theme
	chain    wallet.ChainID
	onChange func(Theme)
}

var _ notify.Sink = (*Policy)(nil)

// NewPolicy creates a Policy reading from source.
func NewPolicy(source ChainSource) *Policy {
	return &Policy{source: source, theme: ThemeDefault, log: logger.Get("network")}
}

// OnChange registers a callback fired when the theme changes.
func (p *Policy) OnChange(fn func(Theme)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Notify implements notify.Sink.
func (p *Policy) Notify(notify.Event) {
	p.Refresh()
}

// Refresh re-reads the active chain.
func (p *Policy) Refresh() {
	chain, ok := p.source.ActiveChain()
	if !ok {
		chain = 0
	}
	theme := ThemeFor(chain)

	p.mu.Lock()
	p.chain = chain
	changed := theme != p.theme
	p.theme = theme
	fn := p.onChange
	p.mu.Unlock()

	if changed {
		p.log.Debug("theme changed", logger.Fields("theme", string(theme), logger.FieldChainID, uint64(chain)))
		if fn != nil {
			fn(theme)
		}
	}
}

// Theme returns the current theme.
func (p *Policy) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// Chain returns the last observed active chain; zero when none.
func (p *Policy) Chain() wallet.ChainID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chain
}
