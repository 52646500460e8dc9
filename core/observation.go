package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/corrvis/internal/ephem"
	"github.com/signalsfoundry/corrvis/model"
)

// Observation holds the run-wide quantities derived from the header.
type Observation struct {
	NFreq       int
	CentFreqHz  float64
	FreqDeltaHz float64

	Pol     *PolIndex
	PolType int

	// JDStart is the Julian date of the midpoint of scan zero.
	JDStart float64
	// JDDayTrunc is the Julian date at the start of JDStart's day
	// (JD ending in .5), the zero point of per-scan time offsets.
	JDDayTrunc float64

	// Phase centre, J2000 mean. RAHours is filled in from LMST and the
	// starting hour angle when the header leaves it unset.
	RAHours    float64
	DecDegrees float64

	// ConfiguredBaselines is the closed-form count for the configured
	// antennas.
	ConfiguredBaselines int
	Weight              float32
}

// ApplyHeader derives the run-wide observation quantities. nAnt is the
// configured antenna count.
func ApplyHeader(h *model.Header, site model.Site, nAnt int, astro FrameTransformer) (*Observation, error) {
	if h.NChans <= 0 {
		return nil, &ConfigError{Field: "N_CHANS", Msg: "must be positive"}
	}
	pol, err := NewPolIndex(h.PolProducts)
	if err != nil {
		return nil, &ConfigError{Field: "POL_PRODUCTS", Msg: err.Error()}
	}

	obs := &Observation{
		NFreq:               h.NChans,
		CentFreqHz:          h.CentFreqMHz * 1e6,
		FreqDeltaHz:         h.BandwidthMHz / float64(h.NChans) * 1e6,
		Pol:                 pol,
		PolType:             pol.Type(),
		RAHours:             h.RAHours,
		DecDegrees:          h.DecDegrees,
		ConfiguredBaselines: ExpectedBaselines(nAnt, h.Mode),
		Weight:              NominalWeight(h.IntTimeS),
	}
	if h.InvertFreq {
		obs.FreqDeltaHz = -obs.FreqDeltaHz
	}

	base := ephem.CalendarJD(h.Year, h.Month, h.Day, h.RefHour, h.RefMinute, h.RefSecond)
	obs.JDStart = base + 0.5*h.IntTimeS/86400.0
	obs.JDDayTrunc = math.Floor(obs.JDStart-0.5) + 0.5

	if h.RAUnset() {
		lmst := astro.LMST(obs.JDStart, site.LongitudeRad)
		// RA is defined at the start of the observation.
		obs.RAHours = lmst*(12.0/math.Pi) - h.HAHoursStart
	}
	return obs, nil
}

// ValidateInputs checks the header, input wiring and antenna list against
// each other. Any mismatch is fatal.
func ValidateInputs(h *model.Header, inputs *model.InputConfig, nAnt int, lockPointing bool) error {
	if inputs.Len() != h.NInputs {
		return &ConfigError{
			Field: "N_INPUTS",
			Msg:   fmtMismatch("instrument config", inputs.Len(), "header", h.NInputs),
		}
	}
	if present := inputs.CountPresentAntennas(); present > nAnt {
		return &ConfigError{
			Field: "antennas",
			Msg:   fmtMismatch("instrument config", present, "antenna locations", nAnt),
		}
	}
	for _, in := range inputs.Inputs {
		if in.Antenna < 0 || in.Antenna >= nAnt {
			return &ConfigError{
				Field: "antennas",
				Msg:   "input references antenna outside the antenna list",
			}
		}
	}
	if lockPointing && h.HAUnset() {
		return &ConfigError{Field: "HA_HRS", Msg: "hour angle must be specified when pointing is locked"}
	}
	return nil
}

func fmtMismatch(aName string, a int, bName string, b int) string {
	return fmt.Sprintf("%s has %d, %s has %d", aName, a, bName, b)
}
