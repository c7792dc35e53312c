package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statforge"

// StartRunSpan starts a span for one agent run.
func StartRunSpan(ctx context.Context, runID, model string, maxIterations int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("llm.model", model),
			attribute.Int("agent.max_iterations", maxIterations),
		),
	)
}

// StartModelSpan starts a span for one model call within a run.
func StartModelSpan(ctx context.Context, iteration, messages int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "llm.chat",
		trace.WithAttributes(
			attribute.Int("agent.iteration", iteration),
			attribute.Int("llm.messages", messages),
		),
	)
}

// StartToolCallSpan starts a span for a tool dispatch within a run.
func StartToolCallSpan(ctx context.Context, tool string, iteration int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tool.call",
		trace.WithAttributes(
			attribute.String("tool.name", tool),
			attribute.Int("agent.iteration", iteration),
		),
	)
}
