package instrument

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation hands out tracers and meters to the rest of the service.
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

// Config drives OpenTelemetry initialization.
type Config struct {
	// Enabled toggles OpenTelemetry entirely; disabled yields a noop.
	Enabled bool
	// ServiceName becomes the service.name resource attribute.
	ServiceName string
	// ServiceVersion becomes the service.version resource attribute.
	ServiceVersion string
	// Environment names the deployment environment.
	Environment string
	// OTLPEndpoint is the collector address shared by all three signals.
	OTLPEndpoint string
	// OTLPSecure controls TLS on the exporter connections.
	OTLPSecure bool
	// TraceSampleRatio is clamped into [0, 1].
	TraceSampleRatio float64
	// MetricsInterval is the periodic metric export interval.
	MetricsInterval time.Duration
	// MaskFields lists log attribute names whose values are redacted.
	MaskFields []string
}

type sdkInstrumentation struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	logs    *sdklog.LoggerProvider
}

// New initializes OTLP exporters for traces, metrics and logs against a
// single collector endpoint. A nil or disabled config yields a noop.
func New(ctx context.Context, cfg *Config) (Instrumentation, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNoop(), nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("env", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, metricExporter, logExporter, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ins := &sdkInstrumentation{
		traces: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.TraceSampleRatio)))),
			sdktrace.WithBatcher(traceExporter),
		),
		metrics: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.MetricsInterval))),
		),
		logs: sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		),
	}

	initLogging(cfg.ServiceName, ins.logs, cfg.MaskFields)

	return ins, nil
}

func newExporters(ctx context.Context, cfg *Config) (*otlptrace.Exporter, *otlpmetricgrpc.Exporter, *otlploggrpc.Exporter, error) {
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, nil, nil, err
	}

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, nil, nil, err
	}

	logExporter, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return nil, nil, nil, err
	}

	return traceExporter, metricExporter, logExporter, nil
}

func clampRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}

// Tracer returns a tracer for the given name.
func (o *sdkInstrumentation) Tracer(name string) trace.Tracer {
	return o.traces.Tracer(name)
}

// Meter returns a meter for the given name.
func (o *sdkInstrumentation) Meter(name string) metric.Meter {
	return o.metrics.Meter(name)
}

// Shutdown flushes and stops all three providers, joining their errors.
func (o *sdkInstrumentation) Shutdown(ctx context.Context) error {
	return errors.Join(
		o.traces.Shutdown(ctx),
		o.metrics.Shutdown(ctx),
		o.logs.Shutdown(ctx),
	)
}

// NewNoop returns a no-op implementation suitable for unit tests.
func NewNoop() Instrumentation {
	return &noopInstrumentation{
		traces:  tracenoop.NewTracerProvider(),
		metrics: metricnoop.NewMeterProvider(),
	}
}

type noopInstrumentation struct {
	traces  trace.TracerProvider
	metrics metric.MeterProvider
}

func (n *noopInstrumentation) Tracer(name string) trace.Tracer {
	return n.traces.Tracer(name)
}

func (n *noopInstrumentation) Meter(name string) metric.Meter {
	return n.metrics.Meter(name)
}

func (n *noopInstrumentation) Shutdown(context.Context) error {
	return nil
}
