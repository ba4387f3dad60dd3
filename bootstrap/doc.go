// Package bootstrap runs a walletkit process: it applies and validates the
// typed config, initializes logging, starts the registered components in
// order, waits for a shutdown signal and stops them again in reverse.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(store)
//	app.RegisterComponent(httpServer)
//	app.OnStop(flushTelemetry)
//	return app.Run(ctx)
package bootstrap
