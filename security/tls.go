package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cast"
)

// Option keys read by FromOptions.
const (
	OptionCAFile     = "tls_ca_file"
	OptionCertFile   = "tls_cert_file"
	OptionKeyFile    = "tls_key_file"
	OptionServerName = "tls_server_name"
	OptionSkipVerify = "tls_skip_verify"
)

// TLS holds client TLS settings for a provider endpoint.
type TLS struct {
	// CAFile verifies the provider against a private CA.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile enable mutual TLS. Both or neither.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
	// ServerName overrides the name checked against the certificate.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// SkipVerify disables verification. Only for local development.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`
}

// FromOptions reads tls_* keys from an adapter option map. It returns nil
// when none are present.
func FromOptions(opts map[string]any) (*TLS, error) {
	t := &TLS{}
	var err error
	if t.CAFile, err = optString(opts, OptionCAFile); err != nil {
		return nil, err
	}
	if t.CertFile, err = optString(opts, OptionCertFile); err != nil {
		return nil, err
	}
	if t.KeyFile, err = optString(opts, OptionKeyFile); err != nil {
		return nil, err
	}
	if t.ServerName, err = optString(opts, OptionServerName); err != nil {
		return nil, err
	}
	if v, ok := opts[OptionSkipVerify]; ok {
		if t.SkipVerify, err = cast.ToBoolE(v); err != nil {
			return nil, fmt.Errorf("option %s: %w", OptionSkipVerify, err)
		}
	}
	if !t.Enabled() {
		return nil, nil
	}
	return t, t.Validate()
}

func optString(opts map[string]any, key string) (string, error) {
	v, ok := opts[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("option %s: %w", key, err)
	}
	return s, nil
}

// Enabled reports whether any setting differs from the system defaults.
func (t *TLS) Enabled() bool {
	if t == nil {
		return false
	}
	return t.SkipVerify || t.CAFile != "" || t.CertFile != "" || t.ServerName != ""
}

// Validate checks that the settings are consistent.
func (t *TLS) Validate() error {
	if t == nil {
		return nil
	}
	if (t.CertFile != "") != (t.KeyFile != "") {
		return fmt.Errorf("security/tls: cert_file and key_file must be set together")
	}
	return nil
}

// Config loads the referenced files into a *tls.Config. A nil or empty TLS
// yields nil.
func (t *TLS) Config() (*tls.Config, error) {
	if !t.Enabled() {
		return nil, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.SkipVerify, //nolint:gosec // opt-in for local development
	}
	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("security/tls: no certificates in %s", t.CAFile)
		}
		cfg.RootCAs = pool
	}
	if t.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// HTTPClient returns an http.Client that uses these settings, or nil when
// the default client will do.
func (t *TLS) HTTPClient() (*http.Client, error) {
	cfg, err := t.Config()
	if err != nil || cfg == nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = cfg
	return &http.Client{Transport: transport}, nil
}
