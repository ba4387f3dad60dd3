package manager

import (
	"context"

	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/notify"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/wallet"
)

// Reconcile queues a provider event. Events of one kind are applied in
// the order they were queued; Reconcile itself never blocks on the session.
func (m *Manager) Reconcile(ev wallet.ProviderEvent) {
	m.queues.push(ev)
}

func (m *Manager) applyQueued(ev wallet.ProviderEvent) {
	_ = m.ReconcileSync(context.Background(), ev)
}

// ReconcileSync applies a provider event immediately. Only the wallet of
// ev.Kind is touched, and applying the same event twice leaves the same
// session as applying it once.
//
// Malformed events return INVALID_EVENT and change nothing. Events for a
// kind without a registered adapter, or without a connected wallet, are
// ignored.
func (m *Manager) ReconcileSync(ctx context.Context, ev wallet.ProviderEvent) error {
	fields := logger.Fields(logger.FieldKind, string(ev.Kind), logger.FieldEventType, string(ev.Type))
	if err := ev.Validate(); err != nil {
		m.log.Warn("ignoring malformed provider event", logger.MergeWithError(fields, err))
		m.metrics.RecordTransition(ctx, "reconcile", observability.OutcomeError)
		return errors.InvalidEvent(string(ev.Kind), err.Error())
	}
	if _, ok := m.adapters.Get(ev.Kind); !ok {
		m.log.Debug("ignoring event for unregistered kind", fields)
		m.metrics.RecordTransition(ctx, "reconcile", observability.OutcomeIgnored)
		return nil
	}

	// Runs after the unlock below: the provider call must not hold the session.
	emptied := false
	defer func() {
		if emptied {
			m.disconnectProvider(ctx, ev.Kind)
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.state.IndexOfKind(ev.Kind)
	if i < 0 {
		m.metrics.RecordTransition(ctx, "reconcile", observability.OutcomeIgnored)
		return nil
	}
	current := m.state.Wallets[i]

	switch ev.Type {
	case wallet.EventAccountsChanged:
		if len(ev.Addresses) == 0 {
			m.removeLocked(ctx, "accounts_emptied", ev.Kind)
			emptied = true
			return nil
		}
		address := wallet.NormalizeAddress(string(ev.Addresses[0]))
		if current.Address.Equal(address) {
			m.metrics.RecordTransition(ctx, "reconcile", observability.OutcomeIgnored)
			return nil
		}

		next := m.state.Clone()
		if active, ok := m.state.ActiveWallet(); ok && active.Kind == ev.Kind {
			next.Active = address
		}
		next.Wallets[i].Address = address
		m.commitLocked(ctx, "account_changed", next, notify.WalletSwitched(ev.Kind, address))
		m.log.Info("provider account changed", logger.Fields(
			logger.FieldKind, string(ev.Kind),
			logger.FieldAddress, address.Short(),
		))

	case wallet.EventChainChanged:
		if current.ChainID == ev.ChainID {
			m.metrics.RecordTransition(ctx, "reconcile", observability.OutcomeIgnored)
			return nil
		}
		next := m.state.Clone()
		next.Wallets[i].ChainID = ev.ChainID
		m.commitLocked(ctx, "chain_changed", next, notify.ChainObserved(ev.Kind, current.Address, ev.ChainID))

	case wallet.EventDisconnected:
		m.removeLocked(ctx, "provider_disconnected", ev.Kind)
	}
	return nil
}
