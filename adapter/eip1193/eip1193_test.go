package eip1193

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/resilience"
	"github.com/kbukum/walletkit/wallet"
)

const (
	addrA = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// fakeProvider answers JSON-RPC calls from a mutable script.
type fakeProvider struct {
	mu       sync.Mutex
	accounts []string
	chain    string
	errs     map[string]*RPCError
	down     bool
	flaky    int
	calls    map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: []string{addrA},
		chain:    "0x92",
		errs:     map[string]*RPCError{},
		calls:    map[string]int{},
	}
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.Method]++
	if f.flaky > 0 {
		f.flaky--
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if f.down {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if e, ok := f.errs[req.Method]; ok {
		resp["error"] = e
	} else {
		switch req.Method {
		case "eth_requestAccounts", "eth_accounts":
			resp["result"] = f.accounts
		case "eth_chainId":
			resp["result"] = f.chain
		default:
			resp["result"] = nil
		}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeProvider) set(fn func(f *fakeProvider)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeProvider) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func newTestAdapter(t *testing.T, f *fakeProvider) *Adapter {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	retry := resilience.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	return New(wallet.KindInjected, Config{Endpoint: srv.URL, PollInterval: -1, Retry: &retry})
}

func TestConnect(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)

	got, err := a.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !got.Equal(addrA) {
		t.Errorf("expected %s, got %s", addrA, got)
	}
	if got != wallet.NormalizeAddress(addrA) {
		t.Errorf("expected normalized address, got %s", got)
	}
	chain, err := a.CurrentChain(context.Background())
	if err != nil || chain != 146 {
		t.Errorf("expected chain 146, got %d %v", chain, err)
	}
}

func TestConnectErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *RPCError
		want errors.ErrorCode
	}{
		{"user rejected", &RPCError{Code: CodeUserRejected, Message: "denied"}, errors.ErrCodeUserRejected},
		{"already pending", &RPCError{Code: CodeRequestAlreadyPending, Message: "pending"}, errors.ErrCodeAlreadyPending},
		{"disconnected", &RPCError{Code: CodeDisconnected, Message: "gone"}, errors.ErrCodeProviderUnavailable},
		{"unauthorized", &RPCError{Code: CodeUnauthorized, Message: "no"}, errors.ErrCodeProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeProvider()
			f.errs["eth_requestAccounts"] = tt.err
			a := newTestAdapter(t, f)

			_, err := a.Connect(context.Background())
			if !errors.HasCode(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
			if a.Connected() {
				t.Error("adapter should not be connected after a failed connect")
			}
		})
	}
}

func TestConnectEmptyAccountsIsRejection(t *testing.T) {
	f := newFakeProvider()
	f.accounts = nil
	a := newTestAdapter(t, f)

	_, err := a.Connect(context.Background())
	if !errors.HasCode(err, errors.ErrCodeUserRejected) {
		t.Errorf("expected USER_REJECTED, got %v", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	f := newFakeProvider()
	f.down = true
	a := newTestAdapter(t, f)

	_, err := a.Connect(context.Background())
	if !errors.HasCode(err, errors.ErrCodeProviderUnavailable) {
		t.Errorf("expected PROVIDER_UNAVAILABLE, got %v", err)
	}
}

func TestReconnect(t *testing.T) {
	t.Run("authorized", func(t *testing.T) {
		f := newFakeProvider()
		a := newTestAdapter(t, f)
		got, err := a.Reconnect(context.Background())
		if err != nil || !got.Equal(addrA) {
			t.Fatalf("expected %s, got %s %v", addrA, got, err)
		}
		if f.count("eth_requestAccounts") != 0 {
			t.Error("reconnect must not prompt the user")
		}
	})

	t.Run("no authorization", func(t *testing.T) {
		f := newFakeProvider()
		f.accounts = nil
		a := newTestAdapter(t, f)
		_, err := a.Reconnect(context.Background())
		if !errors.HasCode(err, errors.ErrCodeSilentUnsupported) {
			t.Errorf("expected SILENT_UNSUPPORTED, got %v", err)
		}
	})
}

func TestDisconnectRevokes(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)
	if _, err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := a.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if f.count("wallet_revokePermissions") != 1 {
		t.Error("expected a revoke call")
	}
	if _, err := a.CurrentAccount(context.Background()); err == nil {
		t.Error("expected no account after disconnect")
	}
}

func TestDisconnectIgnoresRevokeFailure(t *testing.T) {
	f := newFakeProvider()
	f.errs["wallet_revokePermissions"] = &RPCError{Code: CodeUnsupportedMethod, Message: "unsupported"}
	a := newTestAdapter(t, f)
	if _, err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := a.Disconnect(context.Background()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestPollEmitsChanges(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)
	if _, err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	var events []wallet.ProviderEvent
	a.Subscribe(func(ev wallet.ProviderEvent) { events = append(events, ev) })

	if err := a.Poll(context.Background()); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events without changes, got %v", events)
	}

	f.set(func(f *fakeProvider) {
		f.accounts = []string{addrB, addrA}
		f.chain = "0xfa"
	})
	if err := a.Poll(context.Background()); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %v", events)
	}
	if events[0].Type != wallet.EventAccountsChanged || !events[0].Addresses[0].Equal(addrB) {
		t.Errorf("unexpected first event %v", events[0])
	}
	if events[1].Type != wallet.EventChainChanged || events[1].ChainID != 250 {
		t.Errorf("unexpected second event %v", events[1])
	}
	if got, _ := a.CurrentAccount(context.Background()); !got.Equal(addrB) {
		t.Errorf("expected current account %s, got %s", addrB, got)
	}
}

func TestPollEmptyAccounts(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)
	if _, err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	var events []wallet.ProviderEvent
	a.Subscribe(func(ev wallet.ProviderEvent) { events = append(events, ev) })

	f.set(func(f *fakeProvider) { f.accounts = nil })
	if err := a.Poll(context.Background()); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != wallet.EventAccountsChanged || len(events[0].Addresses) != 0 {
		t.Fatalf("expected empty accountsChanged, got %v", events)
	}
	if a.Connected() {
		t.Error("expected adapter to drop the connection")
	}
}

func TestPollLostProviderEmitsDisconnect(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)
	if _, err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	var events []wallet.ProviderEvent
	a.Subscribe(func(ev wallet.ProviderEvent) { events = append(events, ev) })

	f.set(func(f *fakeProvider) { f.down = true })
	for i := 0; i < maxPollFailures; i++ {
		if err := a.Poll(context.Background()); !errors.HasCode(err, errors.ErrCodeProviderUnavailable) {
			t.Fatalf("poll %d: expected PROVIDER_UNAVAILABLE, got %v", i, err)
		}
	}
	if len(events) != 1 || events[0].Type != wallet.EventDisconnected {
		t.Fatalf("expected one disconnect event, got %v", events)
	}
}

func TestFactory(t *testing.T) {
	if _, err := Factory(wallet.KindInjected, map[string]any{}); err == nil {
		t.Error("expected error without endpoint")
	}
	a, err := Factory(wallet.KindFrame, map[string]any{"endpoint": "http://127.0.0.1:1248", "poll_interval": "5s", "retries": 4})
	if err != nil {
		t.Fatalf("Factory failed: %v", err)
	}
	if a.Kind() != wallet.KindFrame {
		t.Errorf("expected kind frame, got %s", a.Kind())
	}
	if a.(*Adapter).cfg.PollInterval.Seconds() != 5 {
		t.Errorf("expected 5s poll interval, got %s", a.(*Adapter).cfg.PollInterval)
	}
	if got := a.(*Adapter).retry.MaxAttempts; got != 5 {
		t.Errorf("expected 5 attempts, got %d", got)
	}
}

func TestReadsRetryTransientFailures(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)

	f.set(func(f *fakeProvider) { f.flaky = 2 })
	addr, err := a.Reconnect(context.Background())
	if err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	if !addr.Equal(addrA) {
		t.Errorf("expected %s, got %s", addrA, addr)
	}
	if n := f.count("eth_accounts"); n != 3 {
		t.Errorf("expected 3 eth_accounts attempts, got %d", n)
	}
}

func TestConnectIsNotRetried(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)

	f.set(func(f *fakeProvider) { f.flaky = 1 })
	if _, err := a.Connect(context.Background()); !errors.HasCode(err, errors.ErrCodeProviderUnavailable) {
		t.Fatalf("expected PROVIDER_UNAVAILABLE, got %v", err)
	}
	if n := f.count("eth_requestAccounts"); n != 1 {
		t.Errorf("expected a single eth_requestAccounts, got %d", n)
	}
}

func TestFactoryTLS(t *testing.T) {
	f := newFakeProvider()
	srv := httptest.NewTLSServer(f)
	defer srv.Close()

	ca := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(ca, block, 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := Factory(wallet.KindInjected, map[string]any{
		"endpoint":      srv.URL,
		"poll_interval": "-1s",
		"tls_ca_file":   ca,
	})
	if err != nil {
		t.Fatalf("Factory failed: %v", err)
	}
	addr, err := a.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect over TLS failed: %v", err)
	}
	if !addr.Equal(addrA) {
		t.Errorf("expected %s, got %s", addrA, addr)
	}
	_ = a.Disconnect(context.Background())

	if _, err := Factory(wallet.KindInjected, map[string]any{
		"endpoint":    srv.URL,
		"tls_ca_file": filepath.Join(t.TempDir(), "missing.pem"),
	}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for unreadable CA, got %v", err)
	}
}

func TestCurrentAccountReadsProvider(t *testing.T) {
	f := newFakeProvider()
	a := newTestAdapter(t, f)
	if _, err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	f.set(func(f *fakeProvider) { f.accounts = []string{addrB} })
	got, err := a.CurrentAccount(context.Background())
	if err != nil {
		t.Fatalf("CurrentAccount failed: %v", err)
	}
	if !got.Equal(addrB) {
		t.Errorf("expected the provider's current account %s, got %s", addrB, got)
	}

	f.set(func(f *fakeProvider) { f.down = true })
	got, err = a.CurrentAccount(context.Background())
	if err != nil {
		t.Fatalf("expected the cached account while unreachable, got %v", err)
	}
	if !got.Equal(addrA) {
		t.Errorf("expected cached %s, got %s", addrA, got)
	}
}
