// Package telemetry exposes OpenTelemetry instruments for verdict outcomes.
// Instruments are created from the global meter provider unless one is
// supplied, so they are no-ops until the host installs an SDK.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/hejijunhao/khmerid"

// Outcome labels for the verdicts counter.
const (
	OutcomeAccepted   = "accepted"
	OutcomeRejected   = "rejected"
	OutcomeSuppressed = "suppressed"
)

// Metrics records verdict outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	verdicts metric.Int64Counter
	failures metric.Int64Counter
	score    metric.Int64Histogram
}

// New creates the instruments on mp. A nil mp uses the global provider.
func New(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	verdicts, err := meter.Int64Counter("khmerid.verdicts",
		metric.WithDescription("Classified frames by gate outcome"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: verdicts counter: %w", err)
	}
	failures, err := meter.Int64Counter("khmerid.recognition.failures",
		metric.WithDescription("Frames whose text recognition failed"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failures counter: %w", err)
	}
	score, err := meter.Int64Histogram("khmerid.score",
		metric.WithDescription("Detector score per classified frame"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: score histogram: %w", err)
	}
	return &Metrics{verdicts: verdicts, failures: failures, score: score}, nil
}

// Verdict records one gate outcome and the score that produced it.
func (m *Metrics) Verdict(ctx context.Context, outcome string, score int) {
	if m == nil {
		return
	}
	m.verdicts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.score.Record(ctx, int64(score))
}

// RecognitionFailure records a frame whose recognizer returned an error.
func (m *Metrics) RecognitionFailure(ctx context.Context, recognizer string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("recognizer", recognizer)))
}
