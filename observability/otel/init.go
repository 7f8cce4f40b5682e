package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const defaultMetricsInterval = 15 * time.Second

// Config selects the OTLP/HTTP collector and describes the auction deployment
// reported on every span and metric. An empty Endpoint installs no exporters;
// operations are then recorded against the no-op global providers.
type Config struct {
	ServiceName     string
	Environment     string
	Endpoint        string
	Insecure        bool
	Headers         map[string]string
	MetricsInterval time.Duration
	Auction         AuctionResource
}

// AuctionResource identifies the auction module and the parameters it runs
// with.
type AuctionResource struct {
	ModuleAddress  string
	BondBps        uint32
	ProtocolFeeBps uint32
	GraceWindow    int64
}

// Telemetry owns the installed providers and the operation instruments built
// on top of them.
type Telemetry struct {
	Operations *Operations
	Exporting  bool

	shutdown []func(context.Context) error
}

// Init installs the global providers and registers the auction operation
// instruments. Call Shutdown on teardown to flush pending exports.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return nil, fmt.Errorf("service name required for telemetry")
	}
	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	tel := &Telemetry{}
	if endpoint, insecure, ok := resolveEndpoint(cfg.Endpoint, cfg.Insecure); ok {
		tp, err := newTracerProvider(ctx, res, endpoint, insecure, cfg.Headers)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		tel.shutdown = append(tel.shutdown, tp.Shutdown)

		mp, err := newMeterProvider(ctx, res, endpoint, insecure, cfg.Headers, cfg.MetricsInterval)
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, err
		}
		otel.SetMeterProvider(mp)
		tel.shutdown = append(tel.shutdown, mp.Shutdown)
		tel.Exporting = true
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ops, err := NewOperations()
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("register operation instruments: %w", err)
	}
	tel.Operations = ops
	return tel, nil
}

// Shutdown flushes and stops the providers in reverse installation order.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for i := len(t.shutdown) - 1; i >= 0; i-- {
		if err := t.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdown = nil
	return errors.Join(errs...)
}

func newResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(cfg.ServiceName)}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}
	if a := cfg.Auction; a.ModuleAddress != "" {
		attrs = append(attrs,
			attribute.String("auction.module", a.ModuleAddress),
			attribute.Int64("auction.bond_bps", int64(a.BondBps)),
			attribute.Int64("auction.protocol_fee_bps", int64(a.ProtocolFeeBps)),
			attribute.Int64("auction.grace_window_seconds", a.GraceWindow),
		)
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, endpoint string, insecure bool, headers map[string]string) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(2*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, endpoint string, insecure bool, headers map[string]string, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(headers))
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	if interval <= 0 {
		interval = defaultMetricsInterval
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	), nil
}

// resolveEndpoint accepts host:port or an http(s) URL. A plain http scheme
// implies an insecure connection.
func resolveEndpoint(raw string, insecure bool) (string, bool, bool) {
	endpoint := strings.TrimSpace(raw)
	switch {
	case endpoint == "":
		return "", false, false
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		insecure = true
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	endpoint = strings.TrimRight(endpoint, "/")
	return endpoint, insecure, endpoint != ""
}

// ParseHeaders converts an OTEL_EXPORTER_OTLP_HEADERS value
// (key=value,foo=bar with percent-encoded values) into exporter headers.
func ParseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		headers[key] = value
	}
	return headers
}
