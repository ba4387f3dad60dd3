package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/walletkit/adapter"
	"github.com/kbukum/walletkit/component"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/notify"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/session"
	"github.com/kbukum/walletkit/wallet"
)

// ComponentName is the name the manager registers under.
const ComponentName = "wallet-session"

// Manager owns the session state.
type Manager struct {
	adapters *adapter.Registry
	store    session.Store
	sinks    []notify.Sink
	metrics  *observability.Metrics
	log      *logger.Logger
	now      func() time.Time

	// mu serializes transitions. Queries read snap instead.
	mu         sync.Mutex
	state      wallet.SessionState
	pending    map[wallet.Kind]struct{}
	persistErr error

	snap atomic.Pointer[wallet.SessionState]

	queues *queues

	lifeMu  sync.Mutex
	unsubs  []func()
	started bool
	stopped bool
}

var _ component.Component = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the session store. The default keeps the session in memory.
func WithStore(s session.Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithSink adds a notification consumer. Sinks run synchronously inside
// the transition that produced the event; they may call the query methods
// but must not issue commands.
func WithSink(s notify.Sink) Option {
	return func(m *Manager) { m.sinks = append(m.sinks, s) }
}

// WithMetrics records transitions on m.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger overrides the manager logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock overrides the time source used for connectedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager over the adapters registered in r.
func New(r *adapter.Registry, opts ...Option) *Manager {
	m := &Manager{
		adapters: r,
		store:    session.NewMemoryStore(),
		log:      logger.Get("manager"),
		now:      time.Now,
		pending:  make(map[wallet.Kind]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queues = newQueues(m.applyQueued)
	m.snap.Store(&wallet.SessionState{})
	return m
}

// Name implements component.Component.
func (m *Manager) Name() string { return ComponentName }

// Start subscribes to every registered adapter and rehydrates the
// persisted session.
func (m *Manager) Start(ctx context.Context) error {
	m.lifeMu.Lock()
	if m.started || m.stopped {
		m.lifeMu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	for _, kind := range m.adapters.Kinds() {
		a, _ := m.adapters.Get(kind)
		m.unsubs = append(m.unsubs, a.Subscribe(m.handlerFor(kind)))
	}
	m.lifeMu.Unlock()

	m.rehydrate(ctx)
	return nil
}

// handlerFor pins every event from kind's adapter to kind, so a
// misbehaving adapter cannot touch another kind's wallet.
func (m *Manager) handlerFor(kind wallet.Kind) adapter.Handler {
	return func(ev wallet.ProviderEvent) {
		ev.Kind = kind
		m.Reconcile(ev)
	}
}

// Stop unsubscribes from the adapters and applies every queued event.
func (m *Manager) Stop(ctx context.Context) error {
	m.lifeMu.Lock()
	unsubs := m.unsubs
	m.unsubs = nil
	m.stopped = true
	m.lifeMu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	return m.queues.stop(ctx)
}

// Health reports the session size and whether the last save failed.
func (m *Manager) Health(_ context.Context) component.Health {
	m.mu.Lock()
	persistErr := m.persistErr
	m.mu.Unlock()

	s := m.Snapshot()
	h := component.Health{
		Name:   ComponentName,
		Status: component.StatusHealthy,
		Details: map[string]any{
			"wallets": len(s.Wallets),
			"active":  s.Active.String(),
		},
	}
	if persistErr != nil {
		h.Status = component.StatusDegraded
		h.Message = "session not persisted: " + persistErr.Error()
	}
	return h
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() wallet.SessionState {
	return m.snap.Load().Clone()
}

// ActiveAddress returns the active address, if any.
func (m *Manager) ActiveAddress() (wallet.Address, bool) {
	s := m.snap.Load()
	return s.Active, !s.Active.IsZero()
}

// ActiveWallet returns the wallet the active address belongs to.
func (m *Manager) ActiveWallet() (wallet.ConnectedWallet, bool) {
	return m.snap.Load().ActiveWallet()
}

// ActiveChain returns the chain of the active wallet, if known.
func (m *Manager) ActiveChain() (wallet.ChainID, bool) {
	w, ok := m.snap.Load().ActiveWallet()
	if !ok || w.ChainID == 0 {
		return 0, false
	}
	return w.ChainID, true
}

// ConnectedWallets returns the connected wallets in connection order.
func (m *Manager) ConnectedWallets() []wallet.ConnectedWallet {
	return m.Snapshot().Wallets
}

// commitLocked installs next, persists it and publishes events. The caller
// holds m.mu.
func (m *Manager) commitLocked(ctx context.Context, op string, next wallet.SessionState, events ...notify.Event) {
	if err := next.Validate(); err != nil {
		// Never reachable through the transitions below; refuse rather
		// than publish a broken session.
		m.log.Error("rejecting inconsistent session", logger.Fields(logger.FieldOperation, op, logger.FieldError, err.Error()))
		m.metrics.RecordTransition(ctx, op, observability.OutcomeError)
		return
	}

	delta := int64(len(next.Wallets) - len(m.state.Wallets))
	m.state = next
	published := next.Clone()
	m.snap.Store(&published)
	m.metrics.AddConnected(ctx, delta)

	m.persistLocked(ctx, op)
	for _, ev := range events {
		m.publish(ctx, ev)
	}
	m.metrics.RecordTransition(ctx, op, observability.OutcomeOK)
}

func (m *Manager) persistLocked(ctx context.Context, op string) {
	err := m.store.Save(ctx, m.state)
	m.persistErr = err
	if err != nil {
		m.log.Warn("session not persisted", logger.MergeWithError(logger.Fields(logger.FieldOperation, op), err))
		m.metrics.RecordPersistFailure(ctx, "save")
	}
}

func (m *Manager) publish(ctx context.Context, ev notify.Event) {
	m.log.Debug("session event", logger.Fields(
		logger.FieldEventType, string(ev.Type),
		logger.FieldKind, string(ev.Kind),
		logger.FieldAddress, ev.Address.String(),
	))
	m.metrics.RecordEvent(ctx, string(ev.Type))
	for _, s := range m.sinks {
		s.Notify(ev)
	}
}
