package telemetry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/itsneelabh/taskagent/core"
)

const instrumentationName = "github.com/itsneelabh/taskagent"

// OTelProvider implements core.Telemetry with OpenTelemetry
type OTelProvider struct {
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider
	meterProvider *sdkmetric.MeterProvider // owned, nil when injected or global

	limiter *labelLimiter

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
}

type providerOptions struct {
	exporter      sdktrace.SpanExporter
	meterProvider metric.MeterProvider
	setGlobal     bool
	version       string
	labelLimits   map[string]int
}

// Option customizes New.
type Option func(*providerOptions)

// WithSpanExporter overrides the exporter chosen from configuration.
// Spans are exported synchronously.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *providerOptions) {
		o.exporter = exp
	}
}

// WithMeterProvider sets the meter provider used for RecordMetric.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *providerOptions) {
		o.meterProvider = mp
	}
}

// WithLabelLimits replaces DefaultLabelLimits.
func WithLabelLimits(limits map[string]int) Option {
	return func(o *providerOptions) {
		o.labelLimits = limits
	}
}

// WithGlobal installs the tracer provider and W3C propagator globally.
func WithGlobal() Option {
	return func(o *providerOptions) {
		o.setGlobal = true
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(v string) Option {
	return func(o *providerOptions) {
		o.version = v
	}
}

// New creates a provider from configuration. The exporter is picked by
// cfg.Exporter: "otlp" (gRPC to cfg.Endpoint), "otlphttp" (HTTP, traces
// and metrics), "stdout", or "none".
func New(ctx context.Context, cfg core.TelemetryConfig, opts ...Option) (*OTelProvider, error) {
	o := providerOptions{version: "dev", labelLimits: DefaultLabelLimits}
	for _, opt := range opts {
		opt(&o)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = core.DefaultServiceName
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", o.version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
	}

	switch {
	case o.exporter != nil:
		tpOpts = append(tpOpts, sdktrace.WithSyncer(o.exporter))
	default:
		exp, batch, err := newExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if exp != nil && batch {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
		} else if exp != nil {
			tpOpts = append(tpOpts, sdktrace.WithSyncer(exp))
		}
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)

	if o.setGlobal {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.TraceContext{})
	}

	var owned *sdkmetric.MeterProvider
	mp := o.meterProvider
	if mp == nil && o.exporter == nil && cfg.Exporter == "otlphttp" {
		owned, err = newHTTPMeterProvider(ctx, cfg, res)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, err
		}
		mp = owned
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	return &OTelProvider{
		tracer:        tp.Tracer(instrumentationName),
		meter:         mp.Meter(instrumentationName),
		traceProvider: tp,
		meterProvider: owned,
		limiter:       newLabelLimiter(o.labelLimits),
		histograms:    make(map[string]metric.Float64Histogram),
	}, nil
}

// otlpEndpoint resolves the collector address: configuration, then the
// standard OTEL variable, then the local default.
func otlpEndpoint(cfg core.TelemetryConfig, fallback string) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	if v := os.Getenv(core.EnvOTELEndpoint); v != "" {
		return v
	}
	return fallback
}

func newHTTPMeterProvider(ctx context.Context, cfg core.TelemetryConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(otlpEndpoint(cfg, "localhost:4318"))}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second))),
	), nil
}

// newExporter builds the configured span exporter. The bool reports whether
// it should be batched.
func newExporter(ctx context.Context, cfg core.TelemetryConfig) (sdktrace.SpanExporter, bool, error) {
	switch cfg.Exporter {
	case "otlp":
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(otlpEndpoint(cfg, "localhost:4317"))}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create otlp exporter: %w", err)
		}
		return exp, true, nil
	case "otlphttp":
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(otlpEndpoint(cfg, "localhost:4318"))}
		if cfg.Insecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create otlp http exporter: %w", err)
		}
		return exp, true, nil
	case "stdout", "":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, false, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exp, false, nil
	case "none":
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("unknown telemetry exporter %q: %w", cfg.Exporter, core.ErrInvalidConfiguration)
	}
}

// StartSpan starts a new telemetry span
func (o *OTelProvider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric records value on a histogram named name, creating the
// instrument on first use. Label values over their limit are recorded as
// "other". Instrument errors are dropped.
func (o *OTelProvider) RecordMetric(name string, value float64, labels map[string]string) {
	h, err := o.histogram(name)
	if err != nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, o.limiter.limit(name, k, v)))
	}
	h.Record(context.Background(), value, metric.WithAttributes(attrs...))
}

func (o *OTelProvider) histogram(name string) (metric.Float64Histogram, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if h, ok := o.histograms[name]; ok {
		return h, nil
	}
	h, err := o.meter.Float64Histogram(name, metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	o.histograms[name] = h
	return h, nil
}

// Shutdown flushes and stops the trace provider and, when New created one,
// the meter provider.
func (o *OTelProvider) Shutdown(ctx context.Context) error {
	err := o.traceProvider.Shutdown(ctx)
	if o.meterProvider != nil {
		if merr := o.meterProvider.Shutdown(ctx); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}

// otelSpan wraps an OpenTelemetry span to implement core.Span
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	RecordSpanError(s.span, err)
}

// EnableTelemetry builds a provider from cfg and returns the runtime option
// that attaches it. With telemetry disabled it returns a nil provider and
// an option that leaves the runtime's default in place.
func EnableTelemetry(ctx context.Context, cfg core.TelemetryConfig, logger core.Logger, opts ...Option) (*OTelProvider, core.RuntimeOption, error) {
	if !cfg.Enabled {
		return nil, core.WithRuntimeTelemetry(nil), nil
	}

	provider, err := New(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}

	if logger != nil {
		logger.Info("Telemetry enabled", map[string]interface{}{
			"exporter": cfg.Exporter,
			"endpoint": cfg.Endpoint,
		})
	}

	return provider, core.WithRuntimeTelemetry(provider), nil
}
