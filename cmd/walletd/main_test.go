package main

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/kbukum/walletkit/config"
	"github.com/kbukum/walletkit/wallet"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-c", "/etc/walletd.yml", "--listen", "127.0.0.1:9999", "--log-level", "debug"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if o.configFile != "/etc/walletd.yml" || o.listen != "127.0.0.1:9999" || o.logLevel != "debug" || o.showVersion {
		t.Errorf("unexpected options %+v", o)
	}
	if _, err := parseFlags([]string{"--nope"}, io.Discard); err == nil {
		t.Error("expected unknown flag error")
	}
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walletd.yml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\nlogging:\n  level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(options{configFile: path, listen: "0.0.0.0:7100", logLevel: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7100 || cfg.Server.Host != "0.0.0.0" || cfg.Logging.Level != "debug" {
		t.Errorf("flags should win over file, got %+v %+v", cfg.Server, cfg.Logging)
	}

	if _, err := loadConfig(options{configFile: path, listen: "bad"}); err == nil {
		t.Error("expected bad listen address error")
	}
}

func TestBuildAdapters(t *testing.T) {
	reg, err := buildAdapters([]config.AdapterConfig{
		{Kind: "frame", Type: config.AdapterEIP1193, Endpoint: "http://127.0.0.1:1248", PollInterval: -time.Second},
		{Kind: "mock", Type: config.AdapterMock, Options: map[string]any{"chain_id": 146}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := reg.Kinds(); !slices.Equal(got, []wallet.Kind{"frame", "mock"}) {
		t.Errorf("unexpected kinds %v", got)
	}

	if _, err := buildAdapters([]config.AdapterConfig{{Kind: "x", Type: "ledger"}}); err == nil {
		t.Error("expected unknown type error")
	}
	if _, err := buildAdapters([]config.AdapterConfig{{Kind: "frame", Type: config.AdapterEIP1193}}); err == nil {
		t.Error("expected missing endpoint error")
	}
}
