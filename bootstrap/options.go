package bootstrap

import (
	"time"

	"github.com/kbukum/walletkit/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	version         string
}

// WithLogger sets the application logger instead of initializing one from
// the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds how long shutdown may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = d }
}

// WithVersion sets the version reported at startup.
func WithVersion(v string) Option {
	return func(o *appOptions) { o.version = v }
}
