// Command walletd is a local wallet session bridge. It keeps the record of
// connected wallets and the active one, persists it across restarts, and
// exposes it to a frontend over HTTP and Server-Sent Events.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kbukum/walletkit/bootstrap"
	"github.com/kbukum/walletkit/config"
	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/manager"
	"github.com/kbukum/walletkit/network"
	"github.com/kbukum/walletkit/notify"
	"github.com/kbukum/walletkit/observability"
	"github.com/kbukum/walletkit/server"
	"github.com/kbukum/walletkit/session"
	"github.com/kbukum/walletkit/sse"
	"github.com/kbukum/walletkit/version"
)

const serviceName = "walletd"

type options struct {
	configFile  string
	envFile     string
	listen      string
	logLevel    string
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.configFile, "config", "c", "", "Path to the config file")
	fs.StringVar(&o.envFile, "env-file", "", "Path to a .env file")
	fs.StringVarP(&o.listen, "listen", "l", "", "Listen address (host:port), overrides server.host/server.port")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	fs.BoolVarP(&o.showVersion, "version", "v", false, "Print version and exit")
	err := fs.Parse(args)
	return o, err
}

func loadConfig(o options) (*config.WalletdConfig, error) {
	var cfg config.WalletdConfig
	var loadOpts []config.LoaderOption
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(o.envFile))
	}
	if err := config.LoadConfig(serviceName, &cfg, loadOpts...); err != nil {
		return nil, err
	}
	if o.listen != "" {
		if err := cfg.Server.SetListen(o.listen); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return &cfg, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if o.showVersion {
		fmt.Println(serviceName, version.Short())
		return
	}
	if err := run(context.Background(), o); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg, bootstrap.WithVersion(version.Short()))
	if err != nil {
		return err
	}
	if err := wire(ctx, app); err != nil {
		return err
	}
	return app.Run(ctx)
}

// wire builds every walletd component and registers it with app in start
// order: event hub, session manager, HTTP server.
func wire(ctx context.Context, app *bootstrap.App[*config.WalletdConfig]) error {
	cfg := app.Cfg
	log := app.Logger

	cfg.Observability.ServiceVersion = app.Version
	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	app.OnStop(bootstrap.Hook(shutdownTelemetry))

	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		return fmt.Errorf("observability metrics: %w", err)
	}

	adapters, err := buildAdapters(cfg.Adapters)
	if err != nil {
		return err
	}

	store, err := session.New(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		app.OnStop(func(context.Context) error { return c.Close() })
	}

	events := sse.NewComponent("/api/events")
	bus := notify.NewBus()
	bus.AddSink(events.Hub())

	mgr := manager.New(adapters,
		manager.WithStore(store),
		manager.WithSink(bus),
		manager.WithMetrics(metrics),
	)

	policy := network.NewPolicy(mgr)
	policy.OnChange(func(theme network.Theme) {
		log.Info("theme changed", logger.Fields("theme", string(theme), "chain", network.Name(policy.Chain())))
	})
	bus.AddSink(policy)
	audit(app, bus)

	srv := server.New(cfg.Server, log)
	server.NewWalletHandler(mgr, events.Hub()).Register(srv.GinEngine().Group("/api"))
	srv.RegisterDefaultEndpoints(serviceName, app.Components.HealthAll)

	if err := app.RegisterComponent(events); err != nil {
		return err
	}
	if err := app.RegisterComponent(mgr); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	app.OnReady(func(context.Context) error {
		policy.Refresh()
		return nil
	})
	return nil
}

// audit logs every session event from a bus subscription.
func audit(app *bootstrap.App[*config.WalletdConfig], bus *notify.Bus) {
	sub := bus.Subscribe(0)
	log := app.Logger.WithComponent("audit")
	go func() {
		for ev := range sub.Events() {
			log.Info("session event", logger.Fields(
				logger.FieldEventType, string(ev.Type),
				logger.FieldKind, string(ev.Kind),
				logger.FieldAddress, ev.Address.Short(),
				logger.FieldChainID, uint64(ev.ChainID),
			))
		}
	}()
	app.OnStop(func(context.Context) error {
		sub.Close()
		return nil
	})
}
