package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for a conversion run. It
// satisfies core.MetricsRecorder.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	ScansProcessed  prometheus.Counter
	ScanDurations   prometheus.Histogram
	ShortReads      *prometheus.CounterVec
	FlaggedTotal    prometheus.Counter
	FrameMismatches prometheus.Counter
	BaselineSlots   prometheus.Gauge
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	scans, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "corrvis_scans_processed_total",
		Help: "Number of scans fully decoded and assembled.",
	}), "corrvis_scans_processed_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "corrvis_scan_duration_seconds",
		Help:    "Wall time spent decoding and assembling one scan.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}), "corrvis_scan_duration_seconds")
	if err != nil {
		return nil, err
	}

	shortReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "corrvis_short_reads_total",
		Help: "Scans ended early by a short read, labeled by stream.",
	}, []string{"stream"})
	shortReads, err = registerCounterVec(reg, shortReads, "corrvis_short_reads_total")
	if err != nil {
		return nil, err
	}

	flagged, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "corrvis_flagged_weights_total",
		Help: "Visibility weights written negative because an input is flagged.",
	}), "corrvis_flagged_weights_total")
	if err != nil {
		return nil, err
	}

	mismatches, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "corrvis_frame_w_mismatches_total",
		Help: "Antennas whose w differed between the epoch-of-date and J2000 frames.",
	}), "corrvis_frame_w_mismatches_total")
	if err != nil {
		return nil, err
	}

	baselines, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "corrvis_baseline_slots",
		Help: "Number of baseline slots in the output layout.",
	}), "corrvis_baseline_slots")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:        gatherer,
		ScansProcessed:  scans,
		ScanDurations:   durations,
		ShortReads:      shortReads,
		FlaggedTotal:    flagged,
		FrameMismatches: mismatches,
		BaselineSlots:   baselines,
	}, nil
}

// Gatherer exposes the registry backing the collector.
func (c *PipelineCollector) Gatherer() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{})
}

// ScanCompleted records one assembled scan.
func (c *PipelineCollector) ScanCompleted(d time.Duration) {
	if c == nil {
		return
	}
	c.ScansProcessed.Inc()
	c.ScanDurations.Observe(d.Seconds())
}

// ShortRead records a scan cut short on stream.
func (c *PipelineCollector) ShortRead(stream string) {
	if c == nil {
		return
	}
	c.ShortReads.WithLabelValues(stream).Inc()
}

// FlaggedWeights adds n flagged weights.
func (c *PipelineCollector) FlaggedWeights(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.FlaggedTotal.Add(float64(n))
}

// FrameMismatch adds n antennas failing the frame invariance check.
func (c *PipelineCollector) FrameMismatch(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.FrameMismatches.Add(float64(n))
}

// Baselines sets the baseline slot gauge.
func (c *PipelineCollector) Baselines(n int) {
	if c == nil {
		return
	}
	c.BaselineSlots.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
