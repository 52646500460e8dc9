// Package runner drives one conversion: it loads the run's text inputs,
// validates them, converts scans until the streams run out and finalizes
// the output.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/corrvis/core"
	"github.com/signalsfoundry/corrvis/internal/config"
	"github.com/signalsfoundry/corrvis/internal/ephem"
	"github.com/signalsfoundry/corrvis/internal/logging"
	"github.com/signalsfoundry/corrvis/internal/observability"
	"github.com/signalsfoundry/corrvis/internal/textcfg"
	"github.com/signalsfoundry/corrvis/internal/visout"
	"github.com/signalsfoundry/corrvis/model"
)

const tracerName = "github.com/signalsfoundry/corrvis/internal/runner"

// scanCountSlack is how far the scans read may drift from the header
// before the mismatch is reported as suspicious.
const scanCountSlack = 4

// streamBufferSize is the read buffer in front of each correlation file.
const streamBufferSize = 1 << 20

// Result summarises a finished run.
type Result struct {
	RunID         string
	OutputDir     string
	ScansRead     int
	ScansExpected int
	// Incomplete is set when a stream ran out before the header's scan
	// count was reached.
	Incomplete bool
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRegisterer registers run metrics on reg instead of the default
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runner) { r.reg = reg }
}

// WithFlagger installs a flagger applied to every scan before it is
// written.
func WithFlagger(f core.Flagger) Option {
	return func(r *Runner) { r.flagger = f }
}

// WithSources replaces the text-file sources.
func WithSources(h core.HeaderSource, in core.InputSource, ants core.AntennaSource) Option {
	return func(r *Runner) {
		r.headers, r.inputs, r.antennas = h, in, ants
	}
}

// Runner performs conversions for one configuration.
type Runner struct {
	cfg     config.Config
	log     logging.Logger
	reg     prometheus.Registerer
	flagger core.Flagger
	tracer  trace.Tracer

	headers  core.HeaderSource
	inputs   core.InputSource
	antennas core.AntennaSource
}

// New builds a runner for cfg.
func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		log:    logging.Noop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.headers == nil || r.inputs == nil || r.antennas == nil {
		files := textcfg.Files{
			HeaderPath:     cfg.HeaderFile,
			InstrumentPath: cfg.InstrumentFile,
			AntennaPath:    cfg.AntennaFile,
			Log:            r.log,
		}
		if r.headers == nil {
			r.headers = files
		}
		if r.inputs == nil {
			r.inputs = files
		}
		if r.antennas == nil {
			r.antennas = files
		}
	}
	return r
}

// Run converts every scan available. A stream running out part way is not
// an error: the scans before it are written and Result.Incomplete is set.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, log := logging.WithRunLogger(ctx, r.log)
	runID := logging.RunIDFromContext(ctx)

	ctx, span := r.tracer.Start(ctx, "Run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	res, err := r.run(ctx, log, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, "conversion failed", logging.Err(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("scans", res.ScansRead), attribute.Bool("incomplete", res.Incomplete))
	return res, nil
}

func (r *Runner) run(ctx context.Context, log logging.Logger, runID string) (*Result, error) {
	site := r.cfg.Site()

	antennas, err := r.antennas.LoadAntennas(site)
	if err != nil {
		return nil, fmt.Errorf("load antennas: %w", err)
	}
	inputs, err := r.inputs.LoadInputs()
	if err != nil {
		return nil, fmt.Errorf("load instrument config: %w", err)
	}
	header, err := r.headers.LoadHeader()
	if err != nil {
		return nil, fmt.Errorf("load header: %w", err)
	}

	if err := core.ValidateInputs(header, inputs, len(antennas), r.cfg.LockPointing); err != nil {
		return nil, err
	}
	for i := range antennas {
		antennas[i].Present = inputs.AntennaPresent(i)
	}
	array := &model.Array{
		Name:       header.Telescope,
		Instrument: header.Instrument,
		Site:       site,
		Antennas:   antennas,
	}

	astro := ephem.New()
	obs, err := core.ApplyHeader(header, site, len(antennas), astro)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "starting conversion",
		logging.String("field", header.FieldName),
		logging.String("mode", header.Mode.String()),
		logging.Int("antennas", len(antennas)),
		logging.Int("inputs", inputs.Len()),
		logging.Int("channels", header.NChans),
		logging.Int("scans", header.NScans),
		logging.Float64("ra_hours", obs.RAHours),
		logging.Float64("dec_degrees", obs.DecDegrees),
	)

	streams, err := r.openStreams(header.Mode)
	if err != nil {
		return nil, err
	}
	defer streams.Close()

	collector, err := observability.NewPipelineCollector(r.reg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if srv := serveMetrics(r.cfg.MetricsAddr, collector, log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pipeline, err := core.NewPipeline(core.Config{
		Header:       header,
		Array:        array,
		Inputs:       inputs,
		Observation:  obs,
		Astro:        astro,
		AutoStream:   streams.auto,
		CrossStream:  streams.cross,
		LockPointing: r.cfg.LockPointing,
	},
		core.WithLogger(log),
		core.WithMetrics(collector),
		core.WithTracer(r.tracer),
	)
	if err != nil {
		return nil, err
	}

	manifest := visout.NewManifest(header, obs, array, pipeline.Table())
	manifest.RunID = runID
	out, err := visout.Create(r.cfg.OutputDir, manifest)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	res := &Result{RunID: runID, OutputDir: r.cfg.OutputDir, ScansExpected: header.NScans}
	loopErr := r.convert(ctx, log, pipeline, out, obs, res)

	// Scans already written stay usable even when the loop failed.
	if err := out.Finalize(); err != nil && loopErr == nil {
		loopErr = fmt.Errorf("finalize output: %w", err)
	}
	if loopErr != nil {
		return nil, loopErr
	}

	r.reportScanCount(ctx, log, res)
	log.Info(ctx, "conversion finished",
		logging.Int("scans", res.ScansRead),
		logging.String("output", r.cfg.OutputDir),
	)
	return res, nil
}

func (r *Runner) convert(ctx context.Context, log logging.Logger, p *core.Pipeline, out core.Serializer, obs *core.Observation, res *Result) error {
	for scan := 0; res.ScansExpected <= 0 || scan < res.ScansExpected; scan++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf, err := p.ReadScan(ctx, scan)
		if errors.Is(err, core.ErrIncomplete) {
			log.Debug(ctx, "stream ended", logging.Int("scan", scan), logging.Err(err))
			res.Incomplete = res.ScansExpected > 0
			return nil
		}
		if err != nil {
			return err
		}

		if r.flagger != nil {
			if err := r.flagger.ApplyFlags(ctx, buf); err != nil {
				return fmt.Errorf("scan %d: apply flags: %w", scan, err)
			}
		}
		if err := out.WriteScan(ctx, buf, buf.JD-obs.JDDayTrunc); err != nil {
			return fmt.Errorf("scan %d: %w", scan, err)
		}
		res.ScansRead++
	}
	return nil
}

func (r *Runner) reportScanCount(ctx context.Context, log logging.Logger, res *Result) {
	if res.ScansExpected <= 0 {
		return
	}
	diff := res.ScansExpected - res.ScansRead
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff > scanCountSlack:
		log.Warn(ctx, "scan count far from header; check the channel, input and scan counts",
			logging.Int("expected", res.ScansExpected),
			logging.Int("read", res.ScansRead),
		)
	case res.Incomplete:
		log.Warn(ctx, "read fewer scans than the header declares",
			logging.Int("expected", res.ScansExpected),
			logging.Int("read", res.ScansRead),
		)
	}
}

type streamFiles struct {
	auto  io.Reader
	cross io.Reader
	files []*os.File
}

func (s *streamFiles) Close() {
	for _, f := range s.files {
		_ = f.Close()
	}
}

// openStreams opens the correlation files the mode reads from.
func (r *Runner) openStreams(mode model.CorrelationMode) (*streamFiles, error) {
	s := &streamFiles{}
	open := func(path, name string) (io.Reader, error) {
		if path == "" {
			return nil, &core.ConfigError{Field: name, Msg: fmt.Sprintf("correlation mode %s needs the %s file", mode, name)}
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s correlations: %w", name, err)
		}
		s.files = append(s.files, f)
		return bufio.NewReaderSize(f, streamBufferSize), nil
	}

	var err error
	if mode != model.CorrAuto {
		if s.cross, err = open(r.cfg.CrossFile, "cross"); err != nil {
			s.Close()
			return nil, err
		}
	}
	if mode != model.CorrCross {
		if s.auto, err = open(r.cfg.AutoFile, "auto"); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func serveMetrics(addr string, collector *observability.PipelineCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
