package core

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/signalsfoundry/corrvis/model"
)

// AntennaSource supplies the ordered antenna list with local XYZ positions.
type AntennaSource interface {
	LoadAntennas(site model.Site) ([]model.Antenna, error)
}

// InputSource supplies the correlator input wiring in enumeration order.
type InputSource interface {
	LoadInputs() (*model.InputConfig, error)
}

// HeaderSource supplies the observation header.
type HeaderSource interface {
	LoadHeader() (*model.Header, error)
}

// FrameTransformer is the astronomical transform capability. Apparent must
// equal PrecessionNutation applied to Aberrate for w to be frame invariant.
type FrameTransformer interface {
	// LMST returns local mean sidereal time (radians) at east longitude lon.
	LMST(jd, lonRad float64) float64
	// Aberrate applies annual aberration to a J2000 mean position.
	Aberrate(jd, ra, dec float64) (float64, float64)
	// Apparent returns the apparent place of date of a J2000 mean position.
	Apparent(jd, ra, dec float64) (float64, float64)
	// PrecessionNutation rotates J2000 vectors into the frame of date.
	PrecessionNutation(jd float64) mat.Matrix
}

// Serializer consumes assembled scans. offsetDays is the scan time relative
// to the truncated Julian day of the first scan.
type Serializer interface {
	WriteScan(ctx context.Context, buf *ScanBuffers, offsetDays float64) error
}

// Flagger may rewrite weight signs after a scan is assembled.
type Flagger interface {
	ApplyFlags(ctx context.Context, buf *ScanBuffers) error
}

// MetricsRecorder receives pipeline counters.
type MetricsRecorder interface {
	ScanCompleted(d time.Duration)
	ShortRead(stream string)
	FlaggedWeights(n int)
	FrameMismatch(n int)
	Baselines(n int)
}

type noopMetrics struct{}

func (noopMetrics) ScanCompleted(time.Duration) {}
func (noopMetrics) ShortRead(string)            {}
func (noopMetrics) FlaggedWeights(int)          {}
func (noopMetrics) FrameMismatch(int)           {}
func (noopMetrics) Baselines(int)               {}
