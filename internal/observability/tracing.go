package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/signalsfoundry/corrvis/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Span exporters understood by InitTracing.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	DefaultServiceName  = "corrvis"
	DefaultOTLPEndpoint = "localhost:4317"

	flushTimeout = 5 * time.Second
)

// ErrUnknownExporter is returned for an exporter name other than stdout or
// otlp.
var ErrUnknownExporter = errors.New("unknown span exporter")

// TracingConfig selects where run and scan spans go.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string
	// Endpoint is the OTLP gRPC collector as host:port.
	Endpoint    string
	SampleRatio float64
	// Output receives stdout spans. Nil means stderr, since stdout may
	// carry command output.
	Output io.Writer
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Close flushes pending spans within a bounded time. Failures are logged,
// not returned.
func (f ShutdownFunc) Close(ctx context.Context, log logging.Logger) {
	if f == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := f(ctx); err != nil {
		log.Warn(ctx, "flushing spans failed", logging.Err(err))
	}
}

// ExporterName returns the normalised exporter name. "otlpgrpc" is accepted
// as an alias of otlp.
func (c TracingConfig) ExporterName() string {
	switch name := strings.ToLower(strings.TrimSpace(c.Exporter)); name {
	case "":
		return ExporterStdout
	case "otlpgrpc":
		return ExporterOTLP
	default:
		return name
	}
}

// Sampler honours a sampled parent and otherwise keeps the configured
// fraction of root spans. Ratios are clamped to [0, 1].
func (c TracingConfig) Sampler() sdktrace.Sampler {
	switch {
	case c.SampleRatio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case c.SampleRatio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
	}
}

// InitTracing installs the global tracer provider. With tracing disabled a
// noop provider is installed and the returned ShutdownFunc does nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (ShutdownFunc, error) {
	if log == nil {
		log = logging.Noop()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	service := cfg.ServiceName
	if service == "" {
		service = DefaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attribute.String("service.name", service)),
	)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(cfg.Sampler()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	fields := []logging.Field{
		logging.String("exporter", cfg.ExporterName()),
		logging.String("service", service),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	}
	if cfg.ExporterName() == ExporterOTLP {
		fields = append(fields, logging.String("endpoint", otlpEndpoint(cfg)))
	}
	log.Info(ctx, "tracing enabled", fields...)
	return tp.Shutdown, nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterName() {
	case ExporterStdout:
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(out),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case ExporterOTLP:
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(otlpEndpoint(cfg)),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		exp, err := otlptrace.New(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
	}
}

func otlpEndpoint(cfg TracingConfig) string {
	if cfg.Endpoint == "" {
		return DefaultOTLPEndpoint
	}
	return cfg.Endpoint
}
