package manager

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/notify"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/wallet"
)

// Connect connects the wallet of kind and makes it active.
//
// If kind is already connected and the provider still reports the same
// account, the existing wallet is made active without prompting. A second
// Connect for a kind whose request is still awaiting approval fails with
// CONNECTION_IN_PROGRESS. Provider rejections are returned unchanged and
// leave the session untouched.
func (m *Manager) Connect(ctx context.Context, kind wallet.Kind) (w wallet.ConnectedWallet, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanConnect, attribute.String(observability.AttrWalletKind, string(kind)))
	defer func() { observability.EndSpan(span, err) }()
	log := m.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldKind, string(kind)))

	a, ok := m.adapters.Get(kind)
	if !ok {
		m.metrics.RecordTransition(ctx, "connect", observability.OutcomeError)
		return wallet.ConnectedWallet{}, errors.ProviderUnavailable(string(kind))
	}

	m.mu.Lock()
	if _, busy := m.pending[kind]; busy {
		m.mu.Unlock()
		m.metrics.RecordTransition(ctx, "connect", observability.OutcomeError)
		return wallet.ConnectedWallet{}, errors.ConnectionInProgress(string(kind))
	}
	m.pending[kind] = struct{}{}
	existing, connected := m.walletOfKindLocked(kind)
	m.mu.Unlock()

	if connected {
		if current, err := a.CurrentAccount(ctx); err == nil && current.Equal(existing.Address) {
			m.mu.Lock()
			w, done := m.reuseLocked(ctx, kind, current)
			if done {
				delete(m.pending, kind)
				m.mu.Unlock()
				log.Debug("wallet already connected")
				return w, nil
			}
			m.mu.Unlock()
		}
	}

	started := time.Now()
	address, err := a.Connect(ctx)
	if err != nil {
		m.mu.Lock()
		delete(m.pending, kind)
		m.mu.Unlock()

		m.metrics.RecordConnect(ctx, string(kind), observability.OutcomeError, time.Since(started))
		m.metrics.RecordTransition(ctx, "connect", observability.OutcomeError)
		if errors.HasCode(err, errors.ErrCodeAlreadyPending) {
			return wallet.ConnectedWallet{}, errors.ConnectionInProgress(string(kind)).WithCause(err)
		}
		fields := logger.ErrorFields("connect", err)
		fields["code"] = string(errors.Code(err))
		log.Info("connect failed", fields)
		return wallet.ConnectedWallet{}, err
	}
	m.metrics.RecordConnect(ctx, string(kind), observability.OutcomeOK, time.Since(started))

	address = wallet.NormalizeAddress(string(address))
	chain, cerr := a.CurrentChain(ctx)
	if cerr != nil {
		log.Debug("chain unknown after connect", logger.ErrorFields("current_chain", cerr))
		chain = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, kind)

	w = wallet.ConnectedWallet{Kind: kind, Address: address, ChainID: chain, ConnectedAt: m.now()}
	next := m.state.Clone()
	if i := next.IndexOfKind(kind); i >= 0 {
		next.Wallets = slices.Delete(next.Wallets, i, i+1)
	}
	next.Wallets = append(next.Wallets, w)
	next.Active = address

	events := []notify.Event{notify.WalletConnected(kind, address, chain)}
	if chain != 0 {
		events = append(events, notify.ChainObserved(kind, address, chain))
	}
	m.commitLocked(ctx, "connect", next, events...)

	log.Info("wallet connected", logger.Fields(logger.FieldAddress, address.Short(), logger.FieldChainID, uint64(chain)))
	return w, nil
}

// reuseLocked makes kind's wallet active if it is still connected under
// address. It reports false when the session changed in the meantime.
func (m *Manager) reuseLocked(ctx context.Context, kind wallet.Kind, address wallet.Address) (wallet.ConnectedWallet, bool) {
	w, ok := m.walletOfKindLocked(kind)
	if !ok || !w.Address.Equal(address) {
		return wallet.ConnectedWallet{}, false
	}
	if active, ok := m.state.ActiveWallet(); ok && active.Kind == kind {
		m.metrics.RecordTransition(ctx, "connect", observability.OutcomeIgnored)
		return w, true
	}
	next := m.state.Clone()
	next.Active = w.Address
	m.commitLocked(ctx, "connect", next, notify.WalletSwitched(kind, w.Address))
	return w, true
}

func (m *Manager) walletOfKindLocked(kind wallet.Kind) (wallet.ConnectedWallet, bool) {
	i := m.state.IndexOfKind(kind)
	if i < 0 {
		return wallet.ConnectedWallet{}, false
	}
	return m.state.Wallets[i], true
}

// SwitchActive makes address the active wallet. No provider is involved.
// Switching to the already active address changes nothing.
func (m *Manager) SwitchActive(ctx context.Context, address wallet.Address) error {
	address = wallet.NormalizeAddress(string(address))

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.state.IndexOfAddress(address)
	if i < 0 {
		m.log.Warn("switch to unknown wallet", logger.Fields(logger.FieldAddress, address.String()))
		m.metrics.RecordTransition(ctx, "switch", observability.OutcomeError)
		return errors.UnknownWallet(address.String())
	}
	if m.state.Active.Equal(address) {
		m.metrics.RecordTransition(ctx, "switch", observability.OutcomeIgnored)
		return nil
	}

	w := m.state.Wallets[i]
	next := m.state.Clone()
	next.Active = w.Address
	m.commitLocked(ctx, "switch", next, notify.WalletSwitched(w.Kind, w.Address))
	return nil
}

// Disconnect removes kind's wallet. If it was active, the most recently
// connected remaining wallet becomes active. The provider is told to
// disconnect on a best-effort basis.
func (m *Manager) Disconnect(ctx context.Context, kind wallet.Kind) error {
	m.mu.Lock()
	if m.state.IndexOfKind(kind) < 0 {
		m.mu.Unlock()
		m.log.Warn("disconnect of unknown wallet", logger.Fields(logger.FieldKind, string(kind)))
		m.metrics.RecordTransition(ctx, "disconnect", observability.OutcomeError)
		return errors.UnknownWallet(string(kind))
	}
	m.removeLocked(ctx, "disconnect", kind)
	m.mu.Unlock()

	m.disconnectProvider(ctx, kind)
	return nil
}

// DisconnectAll disconnects every wallet and clears the persisted session.
func (m *Manager) DisconnectAll(ctx context.Context) error {
	m.mu.Lock()
	prev := m.state
	m.state = wallet.SessionState{}
	m.snap.Store(&wallet.SessionState{})
	m.metrics.AddConnected(ctx, -int64(len(prev.Wallets)))

	if err := m.store.Clear(ctx); err != nil {
		m.persistErr = err
		m.log.Warn("session not cleared", logger.ErrorFields("disconnect_all", err))
		m.metrics.RecordPersistFailure(ctx, "clear")
	} else {
		m.persistErr = nil
	}
	for _, w := range prev.Wallets {
		m.publish(ctx, notify.WalletDisconnected(w.Kind, w.Address))
	}
	m.metrics.RecordTransition(ctx, "disconnect_all", observability.OutcomeOK)
	m.mu.Unlock()

	for _, w := range prev.Wallets {
		m.disconnectProvider(ctx, w.Kind)
	}
	m.log.Info("all wallets disconnected", logger.Fields("count", len(prev.Wallets)))
	return nil
}

func (m *Manager) disconnectProvider(ctx context.Context, kind wallet.Kind) {
	a, ok := m.adapters.Get(kind)
	if !ok {
		return
	}
	if err := a.Disconnect(ctx); err != nil {
		m.log.Warn("provider disconnect failed", logger.MergeWithError(logger.Fields(logger.FieldKind, string(kind)), err))
	}
}

// removeLocked drops kind's wallet and re-elects the active wallet when
// the active address is no longer connected.
func (m *Manager) removeLocked(ctx context.Context, op string, kind wallet.Kind) {
	i := m.state.IndexOfKind(kind)
	if i < 0 {
		return
	}
	gone := m.state.Wallets[i]

	next := m.state.Clone()
	next.Wallets = slices.Delete(next.Wallets, i, i+1)
	events := []notify.Event{notify.WalletDisconnected(gone.Kind, gone.Address)}

	if !next.Active.IsZero() && next.IndexOfAddress(next.Active) < 0 {
		next.Active = ""
		if recent, ok := next.MostRecent(); ok {
			next.Active = recent.Address
			events = append(events, notify.WalletSwitched(recent.Kind, recent.Address))
		}
	}
	m.commitLocked(ctx, op, next, events...)
	m.log.Info("wallet disconnected", logger.Fields(logger.FieldKind, string(kind), logger.FieldOperation, op))
}

// rehydrate restores the persisted session. It replaces the whole state, so
// it only runs once from Start, before any command. Every persisted wallet is
// reconnected silently through its adapter; wallets whose adapter is
// missing or cannot reconnect without prompting are dropped. The persisted
// active wallet stays active if it survived, otherwise the most recently
// connected one is elected.
func (m *Manager) rehydrate(ctx context.Context) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRehydrate)
	defer span.End()

	persisted, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("session not loaded", logger.ErrorFields("rehydrate", err))
		m.metrics.RecordPersistFailure(ctx, "load")
	}

	var (
		next        wallet.SessionState
		events      []notify.Event
		restoredOld []wallet.Address
	)
	for _, pw := range persisted.Wallets {
		if next.IndexOfKind(pw.Kind) >= 0 {
			continue
		}
		fields := logger.Fields(logger.FieldKind, string(pw.Kind), logger.FieldAddress, pw.Address.Short())
		a, ok := m.adapters.Get(pw.Kind)
		if !ok {
			m.log.Debug("dropping persisted wallet without adapter", fields)
			continue
		}
		address, err := a.Reconnect(ctx)
		if err != nil {
			m.log.Debug("dropping persisted wallet", logger.MergeWithError(fields, err))
			continue
		}
		address = wallet.NormalizeAddress(string(address))
		if !address.Equal(pw.Address) {
			m.log.Info("provider account changed since last run", fields)
		}
		chain, err := a.CurrentChain(ctx)
		if err != nil {
			chain = 0
		}

		next.Wallets = append(next.Wallets, wallet.ConnectedWallet{
			Kind: pw.Kind, Address: address, ChainID: chain, ConnectedAt: m.now(),
		})
		restoredOld = append(restoredOld, pw.Address)
		events = append(events, notify.WalletConnected(pw.Kind, address, chain))
		if chain != 0 {
			events = append(events, notify.ChainObserved(pw.Kind, address, chain))
		}
	}

	if i := slices.IndexFunc(restoredOld, persisted.Active.Equal); i >= 0 && !persisted.Active.IsZero() {
		next.Active = next.Wallets[i].Address
	} else if recent, ok := next.MostRecent(); ok {
		next.Active = recent.Address
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitLocked(ctx, "rehydrate", next, events...)
	m.log.Info("session rehydrated", logger.Fields(
		"persisted", len(persisted.Wallets),
		"restored", len(next.Wallets),
	))
}
