package eip1193

import (
	"context"
	stderrors "errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/walletkit/adapter"
	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/resilience"
	"github.com/kbukum/walletkit/security"
	"github.com/kbukum/walletkit/wallet"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 10 * time.Second
	// maxPollFailures consecutive unreachable polls are reported as a disconnect.
	maxPollFailures = 3
)

// Config configures an EIP-1193 adapter.
type Config struct {
	// Endpoint is the provider's JSON-RPC URL.
	Endpoint string
	// PollInterval is how often account and chain are re-read while connected.
	// Negative disables the background poller; Poll can still be called.
	PollInterval time.Duration
	// Timeout bounds every non-interactive request. eth_requestAccounts is
	// only bounded by the caller's context since it waits for the user.
	Timeout time.Duration
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Retry applies to eth_accounts and eth_chainId when the provider is
	// unreachable. The zero value uses resilience.DefaultPolicy.
	Retry *resilience.Policy
}

// Adapter talks to an EIP-1193 provider over HTTP JSON-RPC.
type Adapter struct {
	*adapter.Base

	cfg   Config
	rpc   *rpcClient
	retry resilience.Policy
	log   *logger.Logger

	pollMu   sync.Mutex
	stopPoll context.CancelFunc
	pollDone chan struct{}
	failures int
	accounts []wallet.Address
}

var _ adapter.Adapter = (*Adapter)(nil)

// New creates an adapter for kind.
func New(kind wallet.Kind, cfg Config) *Adapter {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	a := &Adapter{
		Base: adapter.NewBase(kind),
		cfg:  cfg,
		rpc:  &rpcClient{endpoint: cfg.Endpoint, http: client},
		log:  logger.Get("eip1193").WithFields(logger.Fields(logger.FieldKind, string(kind))),
	}
	a.retry = resilience.DefaultPolicy()
	if cfg.Retry != nil {
		a.retry = *cfg.Retry
	}
	a.retry.RetryIf = isTransport
	a.retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		a.log.Debug("retrying provider read", logger.Fields("attempt", attempt, "wait", wait.String(), logger.FieldError, err.Error()))
	}
	return a
}

// Factory builds an adapter from walletd configuration.
// Recognized options: endpoint (required), poll_interval, timeout, retries
// and the security tls_* keys.
func Factory(kind wallet.Kind, cfg map[string]any) (adapter.Adapter, error) {
	endpoint := adapter.ConfigString(cfg, "endpoint")
	if endpoint == "" {
		return nil, errors.InvalidInput("endpoint", "eip1193 adapters need an endpoint")
	}
	poll, err := adapter.ConfigDuration(cfg, "poll_interval")
	if err != nil {
		return nil, err
	}
	timeout, err := adapter.ConfigDuration(cfg, "timeout")
	if err != nil {
		return nil, err
	}
	opts := Config{Endpoint: endpoint, PollInterval: poll, Timeout: timeout}
	if _, ok := cfg["retries"]; ok {
		retries, err := adapter.ConfigUint(cfg, "retries")
		if err != nil {
			return nil, err
		}
		policy := resilience.DefaultPolicy()
		policy.MaxAttempts = int(retries) + 1
		opts.Retry = &policy
	}
	tlsCfg, err := security.FromOptions(cfg)
	if err != nil {
		return nil, errors.InvalidInput("tls", err.Error())
	}
	if opts.HTTPClient, err = tlsCfg.HTTPClient(); err != nil {
		return nil, errors.InvalidInput("tls", err.Error())
	}
	return New(kind, opts), nil
}

// Connect asks the provider for account access.
func (a *Adapter) Connect(ctx context.Context) (wallet.Address, error) {
	done, err := a.BeginConnect()
	if err != nil {
		return "", err
	}
	defer done()

	var raw []string
	if err := a.rpc.call(ctx, "eth_requestAccounts", nil, &raw); err != nil {
		return "", a.mapError(err)
	}
	accounts := normalize(raw)
	if len(accounts) == 0 {
		return "", errors.UserRejected(string(a.Kind()))
	}
	return a.establish(ctx, accounts)
}

// Reconnect reuses an existing authorization via eth_accounts.
func (a *Adapter) Reconnect(ctx context.Context) (wallet.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var raw []string
	if err := a.read(ctx, "eth_accounts", &raw); err != nil {
		return "", a.mapError(err)
	}
	accounts := normalize(raw)
	if len(accounts) == 0 {
		return "", errors.SilentUnsupported(string(a.Kind()))
	}
	return a.establish(ctx, accounts)
}

func (a *Adapter) establish(ctx context.Context, accounts []wallet.Address) (wallet.Address, error) {
	chain, err := a.fetchChain(ctx)
	if err != nil {
		return "", a.mapError(err)
	}
	a.SetConnected(accounts[0], chain)

	a.pollMu.Lock()
	a.accounts = accounts
	a.failures = 0
	a.pollMu.Unlock()

	a.startPolling()
	return accounts[0], nil
}

// Disconnect stops polling, asks the provider to revoke access and clears
// local state. The revoke is best effort.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.stopPolling()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	params := []any{map[string]any{"eth_accounts": map[string]any{}}}
	if err := a.rpc.call(ctx, "wallet_revokePermissions", params, nil); err != nil {
		a.log.Debug("revoke permissions failed", logger.ErrorFields("disconnect", err))
	}

	a.ClearConnection()
	a.pollMu.Lock()
	a.accounts = nil
	a.pollMu.Unlock()
	return nil
}

// CurrentAccount asks the provider for its selected account. The account
// cached by the last poll is returned only when the provider is unreachable.
func (a *Adapter) CurrentAccount(ctx context.Context) (wallet.Address, error) {
	cached, err := a.Account()
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var raw []string
	if err := a.read(ctx, "eth_accounts", &raw); err != nil {
		if isTransport(err) {
			return cached, nil
		}
		return "", a.mapError(err)
	}
	accounts := normalize(raw)
	if len(accounts) == 0 {
		return "", errors.ProviderUnavailable(string(a.Kind()))
	}
	return accounts[0], nil
}

// CurrentChain returns the last chain observed from the provider.
func (a *Adapter) CurrentChain(ctx context.Context) (wallet.ChainID, error) {
	return a.Chain()
}

// Poll reads accounts and chain once and emits an event for every change.
func (a *Adapter) Poll(ctx context.Context) error {
	if !a.Connected() {
		return errors.ProviderUnavailable(string(a.Kind()))
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var raw []string
	err := a.read(ctx, "eth_accounts", &raw)
	var chain wallet.ChainID
	if err == nil {
		chain, err = a.fetchChain(ctx)
	}
	if err != nil {
		return a.pollFailed(err)
	}

	accounts := normalize(raw)
	a.pollMu.Lock()
	a.failures = 0
	changed := !slices.Equal(accounts, a.accounts)
	a.accounts = accounts
	a.pollMu.Unlock()

	if changed {
		if len(accounts) == 0 {
			a.ClearConnection()
			a.Emit(wallet.AccountsChanged(a.Kind()))
			return nil
		}
		a.SetAccount(accounts[0])
		a.Emit(wallet.AccountsChanged(a.Kind(), accounts...))
	}

	if prev, err := a.Chain(); err == nil && prev != chain {
		a.SetChain(chain)
		a.Emit(wallet.ChainChanged(a.Kind(), chain))
	}
	return nil
}

func (a *Adapter) pollFailed(err error) error {
	var transport *TransportError
	var rpcErr *RPCError
	lost := stderrors.As(err, &transport) ||
		(stderrors.As(err, &rpcErr) && (rpcErr.Code == CodeDisconnected || rpcErr.Code == CodeUnauthorized))
	if !lost {
		return err
	}

	a.pollMu.Lock()
	a.failures++
	failures := a.failures
	a.pollMu.Unlock()

	if failures >= maxPollFailures {
		a.log.Warn("provider lost", logger.ErrorFields("poll", err))
		a.ClearConnection()
		a.pollMu.Lock()
		a.accounts = nil
		a.pollMu.Unlock()
		a.Emit(wallet.Disconnected(a.Kind()))
	}
	return a.mapError(err)
}

func (a *Adapter) startPolling() {
	if a.cfg.PollInterval < 0 {
		return
	}
	a.stopPolling()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.pollMu.Lock()
	a.stopPoll = cancel
	a.pollDone = done
	a.pollMu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(a.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !a.Connected() {
					return
				}
				if err := a.Poll(ctx); err != nil {
					a.log.Debug("poll failed", logger.ErrorFields("poll", err))
				}
			}
		}
	}()
}

func (a *Adapter) stopPolling() {
	a.pollMu.Lock()
	cancel, done := a.stopPoll, a.pollDone
	a.stopPoll, a.pollDone = nil, nil
	a.pollMu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (a *Adapter) fetchChain(ctx context.Context) (wallet.ChainID, error) {
	var hex string
	if err := a.read(ctx, "eth_chainId", &hex); err != nil {
		return 0, err
	}
	return wallet.ParseChainID(hex)
}

// read issues an idempotent request, retrying while the provider is unreachable.
func (a *Adapter) read(ctx context.Context, method string, out any) error {
	return resilience.Do(ctx, a.retry, func(ctx context.Context) error {
		return a.rpc.call(ctx, method, nil, out)
	})
}

func isTransport(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var transport *TransportError
	return stderrors.As(err, &transport)
}

func (a *Adapter) mapError(err error) error {
	kind := string(a.Kind())
	var rpcErr *RPCError
	if stderrors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case CodeUserRejected:
			return errors.UserRejected(kind).WithCause(err)
		case CodeRequestAlreadyPending:
			return errors.AlreadyPending(kind).WithCause(err)
		case CodeUnauthorized, CodeDisconnected, CodeChainDisconnected, CodeUnsupportedMethod:
			return errors.ProviderUnavailable(kind).WithCause(err)
		}
		return errors.Internal(err).WithDetail("kind", kind)
	}
	var transport *TransportError
	if stderrors.As(err, &transport) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.ProviderUnavailable(kind).WithCause(err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.UserRejected(kind).WithCause(err)
	}
	return errors.Internal(err).WithDetail("kind", kind)
}

func normalize(raw []string) []wallet.Address {
	out := make([]wallet.Address, 0, len(raw))
	for _, s := range raw {
		if addr := wallet.NormalizeAddress(s); addr.Valid() {
			out = append(out, addr)
		}
	}
	return out
}
