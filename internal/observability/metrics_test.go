package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestPipelineCollectorRecordsScans(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}

	collector.ScanCompleted(20 * time.Millisecond)
	collector.ScanCompleted(30 * time.Millisecond)
	collector.ShortRead("cross")
	collector.FlaggedWeights(12)
	collector.FlaggedWeights(0)
	collector.FrameMismatch(1)
	collector.Baselines(21)

	if got := testutil.ToFloat64(collector.ScansProcessed); got != 2 {
		t.Fatalf("corrvis_scans_processed_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ShortReads.WithLabelValues("cross")); got != 1 {
		t.Fatalf("corrvis_short_reads_total{stream=cross} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.FlaggedTotal); got != 12 {
		t.Fatalf("corrvis_flagged_weights_total = %v, want 12", got)
	}
	if got := testutil.ToFloat64(collector.FrameMismatches); got != 1 {
		t.Fatalf("corrvis_frame_w_mismatches_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.BaselineSlots); got != 21 {
		t.Fatalf("corrvis_baseline_slots = %v, want 21", got)
	}
	if count := histogramSampleCount(t, reg, "corrvis_scan_duration_seconds", nil); count != 2 {
		t.Fatalf("corrvis_scan_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestPipelineCollectorReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("first NewPipelineCollector: %v", err)
	}
	second, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("second NewPipelineCollector: %v", err)
	}
	second.ScanCompleted(time.Millisecond)
	if got := testutil.ToFloat64(first.ScansProcessed); got != 1 {
		t.Fatalf("collectors not shared: first saw %v scans", got)
	}
}

func TestNilPipelineCollectorIsSafe(t *testing.T) {
	var c *PipelineCollector
	c.ScanCompleted(time.Second)
	c.ShortRead("auto")
	c.FlaggedWeights(3)
	c.FrameMismatch(3)
	c.Baselines(3)
}

func TestMetricsHandlerExposesPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPipelineCollector(reg)
	if err != nil {
		t.Fatalf("NewPipelineCollector: %v", err)
	}
	collector.ShortRead("auto")
	collector.Baselines(6)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"corrvis_scans_processed_total",
		"corrvis_scan_duration_seconds",
		"corrvis_short_reads_total",
		"corrvis_flagged_weights_total",
		"corrvis_frame_w_mismatches_total",
		"corrvis_baseline_slots 6",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
