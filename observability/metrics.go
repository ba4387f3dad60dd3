package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Transition outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeIgnored = "ignored"
)

// Metrics holds the session manager's instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	transitions     metric.Int64Counter
	events          metric.Int64Counter
	persistFailures metric.Int64Counter
	connectDuration metric.Float64Histogram
	connected       metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	transitions, err := meter.Int64Counter("walletkit.transitions",
		metric.WithDescription("Session transitions by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating walletkit.transitions counter: %w", err)
	}

	events, err := meter.Int64Counter("walletkit.events",
		metric.WithDescription("Notifications published by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating walletkit.events counter: %w", err)
	}

	persistFailures, err := meter.Int64Counter("walletkit.persist_failures",
		metric.WithDescription("Session store operations that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating walletkit.persist_failures counter: %w", err)
	}

	connectDuration, err := meter.Float64Histogram("walletkit.connect.duration",
		metric.WithDescription("Time spent waiting for the provider to approve a connect"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating walletkit.connect.duration histogram: %w", err)
	}

	connected, err := meter.Int64UpDownCounter("walletkit.connected",
		metric.WithDescription("Currently connected wallets"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating walletkit.connected counter: %w", err)
	}

	return &Metrics{
		transitions:     transitions,
		events:          events,
		persistFailures: persistFailures,
		connectDuration: connectDuration,
		connected:       connected,
	}, nil
}

// RecordTransition counts one session transition.
func (m *Metrics) RecordTransition(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

// RecordEvent counts one published notification.
func (m *Metrics) RecordEvent(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}

// RecordPersistFailure counts one failed store operation.
func (m *Metrics) RecordPersistFailure(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.persistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// RecordConnect records how long a provider connect took.
func (m *Metrics) RecordConnect(ctx context.Context, kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.connectDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// AddConnected adjusts the connected wallet gauge by delta.
func (m *Metrics) AddConnected(ctx context.Context, delta int64) {
	if m == nil || delta == 0 {
		return
	}
	m.connected.Add(ctx, delta)
}
