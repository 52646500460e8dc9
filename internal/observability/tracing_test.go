package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/corrvis/internal/logging"
)

func TestTracingExporterName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ExporterStdout},
		{"STDOUT", ExporterStdout},
		{" otlp ", ExporterOTLP},
		{"otlpgrpc", ExporterOTLP},
		{"zipkin", "zipkin"},
	}
	for _, tt := range tests {
		if got := (TracingConfig{Exporter: tt.in}).ExporterName(); got != tt.want {
			t.Errorf("ExporterName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTracingSamplerClampsRatio(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{7, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := TracingConfig{SampleRatio: tt.ratio}.Sampler().Description()
		if !strings.HasPrefix(desc, "ParentBased{root:"+tt.want) {
			t.Errorf("ratio %v: sampler = %s, want root %s", tt.ratio, desc, tt.want)
		}
	}
}

func TestInitTracingDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	shutdown.Close(context.Background(), nil)

	var nilShutdown ShutdownFunc
	nilShutdown.Close(context.Background(), nil)
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "carrier-pigeon"}, nil)
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("err = %v, want ErrUnknownExporter", err)
	}
}

func TestInitTracingStdoutWritesSpans(t *testing.T) {
	var out bytes.Buffer
	cfg := TracingConfig{Enabled: true, Exporter: ExporterStdout, ServiceName: "corrvis-test", SampleRatio: 1, Output: &out}
	shutdown, err := InitTracing(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() { _, _ = InitTracing(context.Background(), TracingConfig{}, nil) })

	_, span := otel.Tracer("tracing-test").Start(context.Background(), "decode-scan")
	span.End()
	shutdown.Close(context.Background(), logging.Noop())

	got := out.String()
	if !strings.Contains(got, "decode-scan") || !strings.Contains(got, "corrvis-test") {
		t.Fatalf("stdout exporter output missing span or service:\n%s", got)
	}
}
