package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records gateway call outcomes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic; recording is best-effort.
type Metrics interface {
	// RecordCall records one completed gateway call. errKind is empty
	// on success, otherwise the failure classification
	// (network, rate_limited, upstream, malformed_response).
	// cached reports whether the result came from the local cache.
	RecordCall(ctx context.Context, endpoint string, duration time.Duration, errKind string, cached bool)
}

// metricsImpl is the OpenTelemetry-backed Metrics implementation.
type metricsImpl struct {
	callTotal    metric.Int64Counter
	callErrors   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	rateLimited  metric.Int64Counter
}

// NewMetrics creates a Metrics instance on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	callTotal, err := meter.Int64Counter(
		"gateway.call.total",
		metric.WithDescription("Total number of gateway calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callErrors, err := meter.Int64Counter(
		"gateway.call.errors",
		metric.WithDescription("Gateway calls that ended in a classified failure"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"gateway.call.duration_ms",
		metric.WithDescription("Gateway call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"gateway.cache.hits",
		metric.WithDescription("Gateway calls answered from the local cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"gateway.cache.misses",
		metric.WithDescription("Cacheable gateway calls that reached the network"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter(
		"gateway.ratelimited.total",
		metric.WithDescription("Gateway calls rejected upstream with HTTP 429"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		callTotal:    callTotal,
		callErrors:   callErrors,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		rateLimited:  rateLimited,
	}, nil
}

// RecordCall records counters and the duration histogram for one call.
func (m *metricsImpl) RecordCall(ctx context.Context, endpoint string, duration time.Duration, errKind string, cached bool) {
	opt := metric.WithAttributes(attribute.String("endpoint", endpoint))

	m.callTotal.Add(ctx, 1, opt)
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)

	if cached {
		m.cacheHits.Add(ctx, 1, opt)
	} else {
		m.cacheMisses.Add(ctx, 1, opt)
	}

	if errKind != "" {
		m.callErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("kind", errKind),
		))
	}
	if errKind == "rate_limited" {
		m.rateLimited.Add(ctx, 1, opt)
	}
}

// nopMetrics records nothing.
type nopMetrics struct{}

func (nopMetrics) RecordCall(context.Context, string, time.Duration, string, bool) {}

// NopMetrics returns a Metrics implementation that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = nopMetrics{}
)
