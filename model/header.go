package model

import (
	"fmt"
	"strings"
)

// CorrelationMode selects which correlation products the streams carry.
type CorrelationMode byte

const (
	CorrAuto  CorrelationMode = 'A'
	CorrCross CorrelationMode = 'C'
	CorrBoth  CorrelationMode = 'B'
)

// ParseCorrelationMode accepts the single-letter header codes.
func ParseCorrelationMode(s string) (CorrelationMode, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid correlation mode %q", s)
	}
	switch m := CorrelationMode(strings.ToUpper(s)[0]); m {
	case CorrAuto, CorrCross, CorrBoth:
		return m, nil
	default:
		return 0, fmt.Errorf("invalid correlation mode %q", s)
	}
}

func (m CorrelationMode) String() string {
	switch m {
	case CorrAuto:
		return "auto"
	case CorrCross:
		return "cross"
	case CorrBoth:
		return "both"
	default:
		return fmt.Sprintf("CorrelationMode(%d)", byte(m))
	}
}

// UnsetCoordinate marks RA or HA values that were not supplied.
const UnsetCoordinate = -99.0

// Header is the observation metadata for one run.
type Header struct {
	FieldName  string
	Telescope  string
	Instrument string

	Mode     CorrelationMode
	NScans   int
	NInputs  int
	NChans   int
	IntTimeS float64

	// Frequencies in MHz.
	CentFreqMHz  float64
	BandwidthMHz float64
	InvertFreq   bool
	Conjugate    bool
	GeomCorrect  bool

	HAHoursStart float64
	RAHours      float64
	DecDegrees   float64

	// Calendar date and UT time of the start of the first scan.
	Year      int
	Month     int
	Day       int
	RefHour   int
	RefMinute int
	RefSecond float64

	// PolProducts lists the polarization products as letter pairs, e.g.
	// "XXYYXYYX".
	PolProducts string
}

// RAUnset reports whether the header left the phase centre RA unspecified.
func (h *Header) RAUnset() bool { return h.RAHours < -98.0 }

// HAUnset reports whether the header left the starting hour angle unspecified.
func (h *Header) HAUnset() bool { return h.HAHoursStart == UnsetCoordinate }
