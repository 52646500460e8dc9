package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/corrvis/internal/logging"
	"github.com/signalsfoundry/corrvis/model"
	"github.com/signalsfoundry/corrvis/timectrl"
)

const tracerName = "github.com/signalsfoundry/corrvis/core"

// Config carries everything a Pipeline needs for one run.
type Config struct {
	Header      *model.Header
	Array       *model.Array
	Inputs      *model.InputConfig
	Observation *Observation
	Astro       FrameTransformer

	// AutoStream and CrossStream are the correlator outputs. Either may be
	// nil when the correlation mode never reads it.
	AutoStream  io.Reader
	CrossStream io.Reader

	LockPointing bool
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithTracer overrides the tracer used for scan spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// Pipeline converts one scan at a time from the correlator streams into
// the output buffers. It is built once per run and is not safe for
// concurrent use.
type Pipeline struct {
	header   *model.Header
	inputs   []model.InputChannel
	antennas []model.Antenna
	obs      *Observation

	table     *BaselineTable
	layout    Layout
	buf       *ScanBuffers
	decoder   *StreamDecoder
	assembler *Assembler
	resolver  *FrameResolver
	clock     *timectrl.ScanClock

	raRad  float64
	decRad float64
	site   model.Site

	geometry *ScanGeometry

	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// NewPipeline builds the baseline table, polarization index and output
// buffers. Everything it builds is fixed for the rest of the run.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if cfg.Header == nil || cfg.Array == nil || cfg.Inputs == nil || cfg.Observation == nil || cfg.Astro == nil {
		return nil, errors.New("pipeline config is incomplete")
	}

	p := &Pipeline{
		header:   cfg.Header,
		inputs:   cfg.Inputs.Inputs,
		antennas: cfg.Array.Antennas,
		obs:      cfg.Observation,
		site:     cfg.Array.Site,
		raRad:    cfg.Observation.RAHours * (math.Pi / 12.0),
		decRad:   cfg.Observation.DecDegrees * (math.Pi / 180.0),
		log:      logging.Noop(),
		metrics:  noopMetrics{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}

	table, err := NewBaselineTable(len(cfg.Array.Antennas), cfg.Inputs.AntennaPresent, cfg.Header.Mode)
	if err != nil {
		return nil, err
	}
	p.table = table

	// Slots are only assigned to present antennas, so the present count
	// governs the buffer size.
	if table.Len() != cfg.Observation.ConfiguredBaselines {
		p.log.Warn(context.Background(), "present antennas give fewer baselines than configured",
			logging.Int("slots", table.Len()),
			logging.Int("configured", cfg.Observation.ConfiguredBaselines),
		)
	}
	if table.Len() == 0 {
		return nil, &ConfigError{Field: "antennas", Msg: "no baselines for the present antennas"}
	}

	p.layout = Layout{NBaselines: table.Len(), NFreq: cfg.Observation.NFreq, NPol: cfg.Observation.Pol.Len()}
	p.buf = NewScanBuffers(p.layout)
	p.decoder = NewStreamDecoder(cfg.AutoStream, cfg.CrossStream, p.layout.NFreq)
	p.assembler = NewAssembler(cfg.Header, p.layout, cfg.Observation.Weight)
	p.resolver = NewFrameResolver(cfg.Array.Site, cfg.Astro)

	mode := timectrl.Tracking
	if cfg.LockPointing {
		mode = timectrl.Locked
	}
	p.clock = timectrl.NewScanClock(cfg.Observation.JDStart, cfg.Header.IntTimeS, cfg.Header.HAHoursStart, mode)

	p.metrics.Baselines(table.Len())
	p.log.Debug(context.Background(), "pipeline initialised",
		logging.String("mode", cfg.Header.Mode.String()),
		logging.Int("baselines", p.layout.NBaselines),
		logging.Int("channels", p.layout.NFreq),
		logging.Int("pols", p.layout.NPol),
		logging.Float64("weight", float64(cfg.Observation.Weight)),
		logging.String("clock", mode.String()),
	)
	return p, nil
}

// Layout returns the fixed output layout.
func (p *Pipeline) Layout() Layout { return p.layout }

// Table returns the baseline table.
func (p *Pipeline) Table() *BaselineTable { return p.table }

// Buffers returns the reused scan buffers.
func (p *Pipeline) Buffers() *ScanBuffers { return p.buf }

// Geometry returns the geometry of the most recent scan, or nil.
func (p *Pipeline) Geometry() *ScanGeometry { return p.geometry }

// ReadScan decodes and assembles scan into the pipeline's buffers. On a
// short read it returns an error matching ErrIncomplete; pairs assembled
// before the short read keep their values.
func (p *Pipeline) ReadScan(ctx context.Context, scan int) (*ScanBuffers, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "ReadScan", trace.WithAttributes(attribute.Int("scan", scan)))
	defer span.End()

	p.buf.Scan = scan
	p.buf.JD = p.clock.Timestamp(scan)

	geo := p.resolver.Resolve(p.clock.GeometryJD(scan), p.raRad, p.decRad, p.antennas)
	p.geometry = geo
	span.SetAttributes(attribute.Float64("jd", p.buf.JD), attribute.Float64("lmst", geo.LMST))

	if n := geo.FrameMismatches(FrameInvarianceTolerance); n > 0 {
		p.metrics.FrameMismatch(n)
		p.log.Debug(ctx, "w differs between frames", logging.Int("scan", scan), logging.Int("antennas", n))
	}
	p.logGeometry(ctx, scan, geo)

	flagged, err := p.assemblePairs(ctx, geo)
	p.metrics.FlaggedWeights(flagged)
	if err != nil {
		var sre *ShortReadError
		if errors.As(err, &sre) {
			p.metrics.ShortRead(sre.Stream)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("scan %d: %w", scan, err)
	}

	p.metrics.ScanCompleted(time.Since(start))
	return p.buf, nil
}

func (p *Pipeline) assemblePairs(ctx context.Context, geo *ScanGeometry) (int, error) {
	mode := p.header.Mode
	flagged := 0

	for i1 := range p.inputs {
		for i2 := i1; i2 < len(p.inputs); i2++ {
			if mode == model.CorrAuto && i1 != i2 {
				continue
			}
			if mode == model.CorrCross && i1 == i2 {
				continue
			}

			pair := p.canonicalPair(i1, i2)

			var block []float32
			var err error
			if i1 != i2 {
				block, err = p.decoder.ReadCross(i1, i2)
			} else {
				block, err = p.decoder.ReadAuto(i1)
			}
			if err != nil {
				return flagged, err
			}

			// Cross-only runs still consume same-antenna cross-pol
			// products to keep the streams aligned.
			if mode == model.CorrCross && pair.Ant1 == pair.Ant2 {
				continue
			}

			pol, ok := p.obs.Pol.Slot(pair.Pol1, pair.Pol2)
			if !ok {
				p.log.Debug(ctx, "product not in declared pol list",
					logging.Int("inp1", i1), logging.Int("inp2", i2))
				continue
			}
			slot, ok := p.table.Slot(pair.Ant1, pair.Ant2)
			if !ok {
				return flagged, fmt.Errorf("inputs %d,%d: no baseline slot for antennas %d,%d", i1, i2, pair.Ant1, pair.Ant2)
			}
			pair.Pol = pol
			pair.Slot = slot
			if pair.Ant1 != pair.Ant2 {
				pair.Baseline = geo.J2000[pair.Ant1].Sub(geo.J2000[pair.Ant2])
			}

			flagged += p.assembler.Assemble(p.buf, pair.PairSpec, block)
		}
	}
	return flagged, nil
}

// decodedPair carries the feed indices alongside the assembler's view.
type decodedPair struct {
	PairSpec
	Pol1, Pol2 int
}

// canonicalPair resolves inputs to antennas and feeds, swapping so the
// lower antenna comes first.
func (p *Pipeline) canonicalPair(i1, i2 int) decodedPair {
	in1, in2 := p.inputs[i1], p.inputs[i2]
	d := decodedPair{
		PairSpec: PairSpec{
			Inp1:    i1,
			Inp2:    i2,
			Ant1:    in1.Antenna,
			Ant2:    in2.Antenna,
			Delay:   in2.CableDelta - in1.CableDelta,
			Flagged: in1.Flagged || in2.Flagged,
		},
		Pol1: in1.PolIndex,
		Pol2: in2.PolIndex,
	}
	if d.Ant1 > d.Ant2 {
		d.Ant1, d.Ant2 = d.Ant2, d.Ant1
		d.Pol1, d.Pol2 = d.Pol2, d.Pol1
		d.Reversed = true
		d.Delay = -d.Delay
	}
	return d
}

func (p *Pipeline) logGeometry(ctx context.Context, scan int, geo *ScanGeometry) {
	az, el := HorizonCoords(geo.HAApparent, geo.DecApparent, p.site.LatitudeRad)
	p.log.Debug(ctx, "scan geometry",
		logging.Int("scan", scan),
		logging.Float64("lmst_rad", geo.LMST),
		logging.Float64("ha_nominal_rad", p.clock.HourAngle(scan)),
		logging.Float64("ha_apparent_rad", geo.HAApparent),
		logging.Float64("ha_j2000_rad", geo.HAJ2000),
		logging.Float64("dec_apparent_rad", geo.DecApparent),
		logging.Float64("lat_j2000_rad", geo.LatJ2000),
		logging.Float64("az_rad", az),
		logging.Float64("el_rad", el),
	)
}
