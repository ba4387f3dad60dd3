package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/walletkit/component"
	"github.com/kbukum/walletkit/config"
	"github.com/kbukum/walletkit/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name string) *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: name}}
}

type fakeComponent struct {
	name     string
	startErr error
	status   component.HealthStatus
	order    *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.order = append(*f.order, "start:"+f.name)
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	*f.order = append(*f.order, "stop:"+f.name)
	return nil
}

func (f *fakeComponent) Health(context.Context) component.Health {
	status := f.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: f.name, Status: status}
}

func newApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("walletd"), WithLogger(logger.Nop()), WithVersion("0.1.0"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newApp(t)
	if app.Name != "walletd" || app.Version != "0.1.0" {
		t.Errorf("unexpected app %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("unexpected graceful timeout %s", app.gracefulTimeout)
	}

	if _, err := NewApp(newTestConfig("")); err == nil {
		t.Error("expected validation error for missing name")
	}
}

func TestLifecycleOrder(t *testing.T) {
	app := newApp(t)
	var order []string
	_ = app.RegisterComponent(&fakeComponent{name: "store", order: &order})
	_ = app.RegisterComponent(&fakeComponent{name: "server", order: &order})
	app.OnStart(func(context.Context) error { order = append(order, "hook:start"); return nil })
	app.OnReady(func(context.Context) error { order = append(order, "hook:ready"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "hook:stop"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"start:store", "start:server", "hook:start", "hook:ready", "hook:stop", "stop:server", "stop:store"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestStartFailures(t *testing.T) {
	t.Run("component", func(t *testing.T) {
		app := newApp(t)
		var order []string
		_ = app.RegisterComponent(&fakeComponent{name: "store", order: &order})
		_ = app.RegisterComponent(&fakeComponent{name: "server", order: &order, startErr: errors.New("port in use")})

		err := app.Start(context.Background())
		if err == nil || !strings.Contains(err.Error(), "port in use") {
			t.Fatalf("expected start error, got %v", err)
		}
		if strings.Join(order, ",") != "start:store,stop:store" {
			t.Errorf("expected rollback, got %v", order)
		}
	})

	t.Run("hook", func(t *testing.T) {
		app := newApp(t)
		var order []string
		_ = app.RegisterComponent(&fakeComponent{name: "store", order: &order})
		app.OnReady(func(context.Context) error { return errors.New("boom") })

		err := app.Start(context.Background())
		if err == nil || !strings.Contains(err.Error(), "onReady") {
			t.Fatalf("expected hook error, got %v", err)
		}
		if strings.Join(order, ",") != "start:store,stop:store" {
			t.Errorf("expected components stopped, got %v", order)
		}
	})
}

func TestReadyCheck(t *testing.T) {
	app := newApp(t)
	var order []string
	_ = app.RegisterComponent(&fakeComponent{name: "store", order: &order})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}

	_ = app.RegisterComponent(&fakeComponent{name: "wallet-session", order: &order, status: component.StatusDegraded})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "wallet-session=degraded") {
		t.Errorf("expected degraded component reported, got %v", err)
	}
}

func TestShutdownCollectsErrors(t *testing.T) {
	app := newApp(t)
	app.OnStop(func(context.Context) error { return errors.New("flush failed") })
	if err := app.Shutdown(); err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("expected stop hook error, got %v", err)
	}
}
