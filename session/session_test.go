package session

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/walletkit/encryption"
	"github.com/kbukum/walletkit/errors"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/wallet"
)

const (
	addrA wallet.Address = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB wallet.Address = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func sampleState() wallet.SessionState {
	now := time.Now()
	return wallet.SessionState{
		Wallets: []wallet.ConnectedWallet{
			{Kind: wallet.KindInjected, Address: addrA, ChainID: 146, ConnectedAt: now},
			{Kind: wallet.KindWalletConnect, Address: addrB, ChainID: 1, ConnectedAt: now},
		},
		Active: addrA,
	}
}

func assertSample(t *testing.T, p wallet.PersistedSession) {
	t.Helper()
	if len(p.Wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %+v", p.Wallets)
	}
	if p.Wallets[0].Kind != wallet.KindInjected || p.Wallets[0].Address != addrA {
		t.Errorf("unexpected first wallet %+v", p.Wallets[0])
	}
	if p.Wallets[1].Kind != wallet.KindWalletConnect || p.Wallets[1].Address != addrB {
		t.Errorf("unexpected second wallet %+v", p.Wallets[1])
	}
	if p.Active != addrA {
		t.Errorf("expected active %s, got %s", addrA, p.Active)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"future version", `{"version":2,"wallets":[]}`},
		{"missing version", `{"wallets":[]}`},
		{"bad address", `{"version":1,"wallets":[{"kind":"injected","address":"0x12"}]}`},
		{"bad kind", `{"version":1,"wallets":[{"kind":"Not A Kind","address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}]}`},
		{"duplicate", `{"version":1,"wallets":[
			{"kind":"injected","address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
			{"kind":"injected","address":"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}]}`},
		{"dangling active", `{"version":1,"wallets":[],"active":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.data))
			if !stderrors.Is(err, ErrCorrupt) {
				t.Errorf("expected ErrCorrupt, got %v", err)
			}
			if !p.Empty() {
				t.Errorf("expected empty session, got %+v", p)
			}
		})
	}
}

func TestDecodeNormalizes(t *testing.T) {
	p, err := Decode([]byte(`{"version":1,"wallets":[{"kind":"injected","address":"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}],"active":"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if p.Wallets[0].Address != addrA || p.Active != addrA {
		t.Errorf("expected lower-cased addresses, got %+v", p)
	}
}

func TestEncodeEmbedsVersion(t *testing.T) {
	data, err := Encode(wallet.PersistedSession{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(data) != `{"version":1,"wallets":[]}` {
		t.Errorf("unexpected encoding %s", data)
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func(t *testing.T) Store{
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "session.json"))
		},
		"sealed file": func(t *testing.T) Store {
			s, _ := encryption.New("k")
			return NewFileStore(filepath.Join(t.TempDir(), "session.bin"), WithSealer(s))
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "session.db"))
			if err != nil {
				t.Fatalf("OpenSQLite failed: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			p, err := s.Load(ctx)
			if err != nil || !p.Empty() {
				t.Fatalf("expected empty initial load, got %+v %v", p, err)
			}

			if err := s.Save(ctx, sampleState()); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			p, err = s.Load(ctx)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			assertSample(t, p)

			// Save overwrites.
			one := wallet.SessionState{Wallets: sampleState().Wallets[1:], Active: addrB}
			if err := s.Save(ctx, one); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			p, _ = s.Load(ctx)
			if len(p.Wallets) != 1 || p.Active != addrB {
				t.Errorf("expected overwrite, got %+v", p)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			p, err = s.Load(ctx)
			if err != nil || !p.Empty() {
				t.Errorf("expected empty after clear, got %+v %v", p, err)
			}
		})
	}
}

func TestFileStoreCorruptIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path, WithFileLogger(logger.Nop()))
	p, err := s.Load(context.Background())
	if err != nil || !p.Empty() {
		t.Errorf("expected empty session, got %+v %v", p, err)
	}
}

func TestFileStoreWrongKeyIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.bin")
	right, _ := encryption.New("right")
	wrong, _ := encryption.New("wrong")

	if err := NewFileStore(path, WithSealer(right)).Save(context.Background(), sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	p, err := NewFileStore(path, WithSealer(wrong), WithFileLogger(logger.Nop())).Load(context.Background())
	if err != nil || !p.Empty() {
		t.Errorf("expected empty session, got %+v %v", p, err)
	}
}

func TestFileStoreWritesPrivateFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "session.json")
	if err := NewFileStore(path).Save(context.Background(), sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600, got %o", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the session file, got %d entries", len(entries))
	}
}

func TestFileStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(filepath.Join(blocker, "session.json"))
	err := s.Save(context.Background(), sampleState())
	if !errors.HasCode(err, errors.ErrCodePersistenceFailure) {
		t.Errorf("expected PERSISTENCE_FAILURE, got %v", err)
	}
}

func TestSQLiteUnknownVersionIsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()
	if err := s.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	p, err := s.Load(ctx)
	if err != nil || !p.Empty() {
		t.Errorf("expected empty session, got %+v %v", p, err)
	}

	if err := s.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	p, _ = s.Load(ctx)
	assertSample(t, p)
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := s.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	p, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSample(t, p)
}

func TestMemoryStoreFailSaves(t *testing.T) {
	m := NewMemoryStore()
	m.FailSaves(stderrors.New("disk full"))
	err := m.Save(context.Background(), sampleState())
	if !errors.HasCode(err, errors.ErrCodePersistenceFailure) {
		t.Errorf("expected PERSISTENCE_FAILURE, got %v", err)
	}
	if m.Saves() != 0 {
		t.Errorf("expected 0 saves, got %d", m.Saves())
	}

	m.FailSaves(nil)
	if err := m.Save(context.Background(), sampleState()); err != nil {
		t.Errorf("expected save to recover, got %v", err)
	}
}

func TestMemoryStoreCorruptIsEmpty(t *testing.T) {
	m := NewMemoryStore()
	m.SetRaw([]byte(`{"version":99}`))
	p, err := m.Load(context.Background())
	if err != nil || !p.Empty() {
		t.Errorf("expected empty session, got %+v %v", p, err)
	}
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"memory", Config{Driver: DriverMemory}, false},
		{"sqlite", Config{Driver: DriverSQLite, Path: "x.db"}, false},
		{"unknown driver", Config{Driver: "redis"}, true},
		{"sealed sqlite", Config{Driver: DriverSQLite, Path: "x.db", SealKey: "k"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSelectsDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(ctx, Config{Driver: DriverFile, Path: filepath.Join(dir, "s.json"), SealKey: "k"}, logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if fs, ok := s.(*FileStore); !ok || fs.sealer == nil {
		t.Errorf("expected sealed FileStore, got %T", s)
	}

	s, err = New(ctx, Config{Driver: DriverSQLite, Path: filepath.Join(dir, "s.db")}, logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if sq, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected SQLiteStore, got %T", s)
	} else {
		sq.Close()
	}
}
