package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "domaauction"

// Operations traces and counts auction operations through the global
// providers installed by Init. Without Init the no-op providers are used.
type Operations struct {
	tracer  trace.Tracer
	count   metric.Int64Counter
	latency metric.Float64Histogram
}

func NewOperations() (*Operations, error) {
	meter := otel.Meter(instrumentationName)
	count, err := meter.Int64Counter("auction.operations",
		metric.WithDescription("Auction operations by name and outcome."))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("auction.operation.duration",
		metric.WithDescription("Auction operation latency."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Operations{tracer: otel.Tracer(instrumentationName), count: count, latency: latency}, nil
}

// Start opens a span for the named operation. The returned finish function
// must be called with the operation's error.
func (o *Operations) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if o == nil {
		return ctx, func(error) {}
	}
	started := time.Now()
	ctx, span := o.tracer.Start(ctx, "auction."+name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
		}
		opAttrs := metric.WithAttributes(attribute.String("operation", name), attribute.String("outcome", outcome))
		o.count.Add(ctx, 1, opAttrs)
		o.latency.Record(ctx, time.Since(started).Seconds(), opAttrs)
		span.End()
	}
}
