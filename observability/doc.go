// Package observability wires OpenTelemetry tracing and metrics for
// walletkit.
//
// When disabled, the global no-op providers stay in place and every
// instrument is free to call.
//
//	shutdown, err := observability.Setup(ctx, cfg)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.RecordTransition(ctx, "connect", observability.OutcomeOK)
package observability
