package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing for gateway calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartCall starts a span for a call to the named endpoint.
	StartCall(ctx context.Context, endpoint string) (context.Context, trace.Span)

	// EndCall ends the span, recording the failure kind if any.
	EndCall(span trace.Span, errKind string, cached bool)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartCall starts a span named gateway.call.<endpoint>.
func (t *tracerImpl) StartCall(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "gateway.call."+endpoint,
		trace.WithAttributes(attribute.String("endpoint", endpoint)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndCall records the outcome and ends the span.
func (t *tracerImpl) EndCall(span trace.Span, errKind string, cached bool) {
	span.SetAttributes(attribute.Bool("cache.hit", cached))
	if errKind != "" {
		span.SetAttributes(attribute.String("error.kind", errKind))
		span.SetStatus(codes.Error, errKind)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// nopTracer produces inert spans.
type nopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a tracer whose spans record nothing.
func NopTracer() Tracer {
	return &nopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *nopTracer) StartCall(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "gateway.call."+endpoint)
}

func (t *nopTracer) EndCall(span trace.Span, _ string, _ bool) {
	span.End()
}
