package config

import (
	"fmt"
	"maps"
	"time"

	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/server"
	"github.com/kbukum/walletkit/session"
	"github.com/kbukum/walletkit/validation"
)

// Adapter types walletd knows how to build.
const (
	AdapterEIP1193 = "eip1193"
	AdapterMock    = "mock"
)

// AdapterConfig declares one wallet provider.
type AdapterConfig struct {
	Kind         string         `yaml:"kind" mapstructure:"kind" validate:"required,wallet_kind"`
	Type         string         `yaml:"type" mapstructure:"type" validate:"required,oneof=eip1193 mock"`
	Endpoint     string         `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	PollInterval time.Duration  `yaml:"poll_interval" mapstructure:"poll_interval"`
	Timeout      time.Duration  `yaml:"timeout" mapstructure:"timeout"`
	Options      map[string]any `yaml:"options" mapstructure:"options"`
}

// Settings flattens the adapter config into the option map an
// adapter.Factory reads.
func (a AdapterConfig) Settings() map[string]any {
	out := make(map[string]any, len(a.Options)+3)
	maps.Copy(out, a.Options)
	if a.Endpoint != "" {
		out["endpoint"] = a.Endpoint
	}
	if a.PollInterval != 0 {
		out["poll_interval"] = a.PollInterval
	}
	if a.Timeout != 0 {
		out["timeout"] = a.Timeout
	}
	return out
}

// WalletdConfig is the walletd configuration tree.
type WalletdConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Store         session.Config       `yaml:"store" mapstructure:"store"`
	Adapters      []AdapterConfig      `yaml:"adapters" mapstructure:"adapters"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in every section. With no adapters configured a
// single mock adapter is declared so the daemon is usable out of the box.
func (c *WalletdConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "walletd"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Observability.ServiceName = c.Name
	c.Observability.Environment = c.Environment
	c.Observability.ApplyDefaults()
	if len(c.Adapters) == 0 {
		c.Adapters = []AdapterConfig{{Kind: "mock", Type: AdapterMock}}
	}
}

// Validate checks every section.
func (c *WalletdConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Adapters))
	for i, a := range c.Adapters {
		if err := validation.Validate(a); err != nil {
			return fmt.Errorf("adapters[%d]: %w", i, err)
		}
		if a.Type == AdapterEIP1193 && a.Endpoint == "" {
			return fmt.Errorf("adapters[%d]: endpoint is required for %s adapters", i, a.Type)
		}
		if seen[a.Kind] {
			return fmt.Errorf("adapters[%d]: duplicate kind %q", i, a.Kind)
		}
		seen[a.Kind] = true
	}
	return nil
}
