package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/corrvis/internal/ephem"
	"github.com/signalsfoundry/corrvis/model"
)

func observationHeader() *model.Header {
	return &model.Header{
		FieldName:    "test",
		Mode:         model.CorrBoth,
		NScans:       2,
		NInputs:      4,
		NChans:       32,
		IntTimeS:     8,
		CentFreqMHz:  150,
		BandwidthMHz: 1.28,
		HAHoursStart: 1.5,
		RAHours:      model.UnsetCoordinate,
		DecDegrees:   -26.7,
		Year:         2011,
		Month:        10,
		Day:          18,
		RefHour:      12,
		PolProducts:  "XXYYXYYX",
	}
}

func TestApplyHeaderDerivesTimesAndRA(t *testing.T) {
	h := observationHeader()
	astro := ephem.New()
	obs, err := ApplyHeader(h, mwaSite, 2, astro)
	if err != nil {
		t.Fatalf("ApplyHeader: %v", err)
	}

	wantStart := 2455853.0 + 4.0/86400.0
	if math.Abs(obs.JDStart-wantStart) > 1e-8 {
		t.Fatalf("JDStart = %.9f, want %.9f", obs.JDStart, wantStart)
	}
	if obs.JDDayTrunc != 2455852.5 {
		t.Fatalf("JDDayTrunc = %v, want 2455852.5", obs.JDDayTrunc)
	}

	wantRA := astro.LMST(obs.JDStart, mwaSite.LongitudeRad)*12/math.Pi - 1.5
	if math.Abs(obs.RAHours-wantRA) > 1e-12 {
		t.Fatalf("RAHours = %v, want %v", obs.RAHours, wantRA)
	}

	if obs.NFreq != 32 || obs.Pol.Len() != 4 || obs.PolType != PolTypeLinear {
		t.Fatalf("unexpected shape: %+v", obs)
	}
	if obs.ConfiguredBaselines != 3 || obs.Weight != 8 {
		t.Fatalf("baselines=%d weight=%v", obs.ConfiguredBaselines, obs.Weight)
	}
	if math.Abs(obs.FreqDeltaHz-40e3) > 1e-6 {
		t.Fatalf("FreqDeltaHz = %v, want 40e3", obs.FreqDeltaHz)
	}
}

func TestApplyHeaderKeepsExplicitRA(t *testing.T) {
	h := observationHeader()
	h.RAHours = 4.25
	h.InvertFreq = true
	obs, err := ApplyHeader(h, mwaSite, 2, ephem.New())
	if err != nil {
		t.Fatalf("ApplyHeader: %v", err)
	}
	if obs.RAHours != 4.25 {
		t.Fatalf("RAHours = %v, want 4.25", obs.RAHours)
	}
	if obs.FreqDeltaHz >= 0 {
		t.Fatalf("inverted band should have negative channel width, got %v", obs.FreqDeltaHz)
	}
}

func TestApplyHeaderRejects(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*model.Header)
		field string
	}{
		{"no channels", func(h *model.Header) { h.NChans = 0 }, "N_CHANS"},
		{"too many pols", func(h *model.Header) { h.PolProducts = "XXYYXYYXXX" }, "POL_PRODUCTS"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := observationHeader()
			tc.edit(h)
			_, err := ApplyHeader(h, mwaSite, 2, ephem.New())
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tc.field {
				t.Fatalf("err = %v, want ConfigError on %s", err, tc.field)
			}
		})
	}
}

func twoAntennaInputs() *model.InputConfig {
	return &model.InputConfig{Inputs: []model.InputChannel{
		{Input: 0, Antenna: 0, Pol: 'X', PolIndex: 0},
		{Input: 1, Antenna: 0, Pol: 'Y', PolIndex: 1},
		{Input: 2, Antenna: 1, Pol: 'X', PolIndex: 0},
		{Input: 3, Antenna: 1, Pol: 'Y', PolIndex: 1},
	}}
}

func TestValidateInputs(t *testing.T) {
	h := observationHeader()
	if err := ValidateInputs(h, twoAntennaInputs(), 2, false); err != nil {
		t.Fatalf("ValidateInputs: %v", err)
	}

	tests := []struct {
		name   string
		inputs *model.InputConfig
		nAnt   int
		lock   bool
		haHrs  float64
		field  string
	}{
		{"input count", &model.InputConfig{Inputs: twoAntennaInputs().Inputs[:3]}, 2, false, 0, "N_INPUTS"},
		{"too few antennas", twoAntennaInputs(), 1, false, 0, "antennas"},
		{"locked without HA", twoAntennaInputs(), 2, true, model.UnsetCoordinate, "HA_HRS"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := observationHeader()
			h.HAHoursStart = tc.haHrs
			err := ValidateInputs(h, tc.inputs, tc.nAnt, tc.lock)
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tc.field {
				t.Fatalf("err = %v, want ConfigError on %s", err, tc.field)
			}
		})
	}
}

func TestValidateInputsOutOfRangeAntenna(t *testing.T) {
	h := observationHeader()
	h.NInputs = 2
	inputs := &model.InputConfig{Inputs: []model.InputChannel{
		{Input: 0, Antenna: 0},
		{Input: 1, Antenna: 5},
	}}
	var ce *ConfigError
	if err := ValidateInputs(h, inputs, 3, false); !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}
