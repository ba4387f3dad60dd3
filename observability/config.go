package observability

import (
	"errors"
	"time"
)

// Config configures telemetry export.
type Config struct {
	// Enabled turns on OTLP export. When false, Setup installs nothing.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" json:"insecure"`
	// SampleRate is the trace sampling ratio (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval" json:"interval"`

	ServiceName    string `mapstructure:"-" json:"-"`
	ServiceVersion string `mapstructure:"-" json:"-"`
	Environment    string `mapstructure:"-" json:"-"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
	if c.ServiceName == "" {
		c.ServiceName = "walletd"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return errors.New("observability: sample_rate must be between 0 and 1")
	}
	if c.Enabled && c.Endpoint == "" {
		return errors.New("observability: endpoint is required when enabled")
	}
	return nil
}
