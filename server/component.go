package server

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/walletkit/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*ServerComponent)(nil)
	_ component.Describable = (*ServerComponent)(nil)
)

// ServerComponent wraps Server to implement component.Component.
type ServerComponent struct {
	server  *Server
	running atomic.Bool
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

// Name returns the component name used for registration.
func (sc *ServerComponent) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *ServerComponent) Start(ctx context.Context) error {
	if err := sc.server.Start(ctx); err != nil {
		return err
	}
	sc.running.Store(true)
	return nil
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *ServerComponent) Stop(ctx context.Context) error {
	sc.running.Store(false)
	return sc.server.Stop(ctx)
}

// Health reports whether the server is serving.
func (sc *ServerComponent) Health(_ context.Context) component.Health {
	if !sc.running.Load() {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "not serving",
		}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusHealthy,
		Details: map[string]any{"addr": sc.server.Addr()},
	}
}

// Describe returns the startup summary line.
func (sc *ServerComponent) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s h2c, %d routes", sc.server.config.Addr(), len(sc.server.engine.Routes())),
	}
}
