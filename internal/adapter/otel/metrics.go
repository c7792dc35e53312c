package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "statforge"

// Metrics holds all StatForge metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	RunsStarted     metric.Int64Counter
	RunsCompleted   metric.Int64Counter
	ToolCalls       metric.Int64Counter
	FallbackAnswers metric.Int64Counter
	Iterations      metric.Int64Histogram
	RunDuration     metric.Float64Histogram
	ModelLatency    metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider())
}

// NewMetricsWithProvider creates all metric instruments on mp.
func NewMetricsWithProvider(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("statforge.agent.runs.started",
		metric.WithDescription("Number of questions received"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("statforge.agent.runs.completed",
		metric.WithDescription("Number of runs finished, by outcome"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("statforge.agent.toolcalls",
		metric.WithDescription("Number of tool dispatches, by tool and success"))
	if err != nil {
		return nil, err
	}

	m.FallbackAnswers, err = meter.Int64Counter("statforge.agent.fallback_answers",
		metric.WithDescription("Runs that hit the iteration ceiling"))
	if err != nil {
		return nil, err
	}

	m.Iterations, err = meter.Int64Histogram("statforge.agent.iterations",
		metric.WithDescription("Loop iterations used per run"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("statforge.agent.run.duration_seconds",
		metric.WithDescription("Run duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.ModelLatency, err = meter.Float64Histogram("statforge.llm.latency_seconds",
		metric.WithDescription("Model backend call latency in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RunStarted counts a new question.
func (m *Metrics) RunStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.RunsStarted.Add(ctx, 1)
}

// RunFinished records the outcome, iterations and duration of a run.
func (m *Metrics) RunFinished(ctx context.Context, outcome string, iterations int, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.RunsCompleted.Add(ctx, 1, attrs)
	m.Iterations.Record(ctx, int64(iterations), attrs)
	m.RunDuration.Record(ctx, seconds, attrs)
	if outcome == "fallback" {
		m.FallbackAnswers.Add(ctx, 1)
	}
}

// ToolCalled counts one tool dispatch.
func (m *Metrics) ToolCalled(ctx context.Context, tool string, success bool) {
	if m == nil {
		return
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("success", success),
	))
}

// ModelCalled records one model backend round trip.
func (m *Metrics) ModelCalled(ctx context.Context, model string, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.ModelLatency.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("model", model),
		attribute.Bool("failed", failed),
	))
}
