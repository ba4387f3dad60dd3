package session

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/kbukum/walletkit/encryption"
	"github.com/kbukum/walletkit/logger"
)

// Driver constants for supported store backends.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "walletd/session.json"

// Config selects and configures a Store.
type Config struct {
	// Driver is one of file, sqlite or memory.
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the session file or database path.
	Path string `mapstructure:"path" json:"path"`
	// SealKey, when set, encrypts the file driver's payload at rest.
	SealKey string `mapstructure:"seal_key" json:"-"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverFile
	}
	if c.Path == "" && c.Driver != DriverMemory {
		c.Path = defaultPath(c.Driver)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !slices.Contains([]string{DriverFile, DriverSQLite, DriverMemory}, c.Driver) {
		return fmt.Errorf("store: unsupported driver %q", c.Driver)
	}
	if c.Driver != DriverMemory && c.Path == "" {
		return fmt.Errorf("store: path is required for %s driver", c.Driver)
	}
	if c.SealKey != "" && c.Driver != DriverFile {
		return fmt.Errorf("store: seal_key is only supported by the file driver")
	}
	return nil
}

// New opens the Store described by cfg.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := log.WithComponent("session")
	l.Info("opening session store", logger.Fields("driver", cfg.Driver, "path", cfg.Path, "sealed", cfg.SealKey != ""))

	switch cfg.Driver {
	case DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		s.log = l
		return s, nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		opts := []FileOption{WithFileLogger(l)}
		if cfg.SealKey != "" {
			sealer, err := encryption.New(cfg.SealKey)
			if err != nil {
				return nil, fmt.Errorf("store: %w", err)
			}
			opts = append(opts, WithSealer(sealer))
		}
		return NewFileStore(cfg.Path, opts...), nil
	}
}

func defaultPath(driver string) string {
	p := DefaultPath
	if driver == DriverSQLite {
		p = "walletd/session.db"
	}
	if dir, err := userStateDir(); err == nil {
		return filepath.Join(dir, p)
	}
	return p
}
