package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFieldsAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Writer: &buf})

	log.Debug(context.Background(), "hidden")
	log.With(String("component", "pipeline")).Info(context.Background(), "scan done",
		Int("scan", 3), Float64("jd", 2455852.5), Bool("locked", false), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if rec["msg"] != "scan done" || rec["component"] != "pipeline" || rec["error"] != "boom" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec["scan"].(float64) != 3 {
		t.Fatalf("scan = %v, want 3", rec["scan"])
	}
}

func TestWithRunLoggerStoresIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "text", Writer: &buf})

	ctx, l := WithRunLogger(context.Background(), base)
	id := RunIDFromContext(ctx)
	if id == "" {
		t.Fatalf("expected run id on context")
	}
	if again, _ := EnsureRunID(ctx); RunIDFromContext(again) != id {
		t.Fatalf("EnsureRunID replaced an existing id")
	}

	LoggerFromContext(ctx).Info(ctx, "hello")
	l.Info(ctx, "again")
	if got := strings.Count(buf.String(), "run_id="+id); got != 2 {
		t.Fatalf("expected run_id on both lines, got %d in %q", got, buf.String())
	}
}

func TestLoggerFromContextDefaultsToNoop(t *testing.T) {
	if _, ok := LoggerFromContext(context.Background()).(noopLogger); !ok {
		t.Fatalf("expected noop logger when none stored")
	}
}
