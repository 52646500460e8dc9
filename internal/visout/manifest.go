package visout

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/corrvis/core"
	"github.com/signalsfoundry/corrvis/model"
)

const (
	ManifestName = "manifest.yaml"
	DataName     = "vis.zst"
	FormatName   = "corrvis-frames"
)

// Manifest describes a converted run.
type Manifest struct {
	Format  string    `yaml:"format"`
	Version int       `yaml:"version"`
	RunID   string    `yaml:"run_id,omitempty"`
	Created time.Time `yaml:"created"`
	Data    string    `yaml:"data"`

	Field      string `yaml:"field"`
	Telescope  string `yaml:"telescope"`
	Instrument string `yaml:"instrument"`

	Site     SiteInfo      `yaml:"site"`
	Spectral SpectralInfo  `yaml:"spectral"`
	Pointing PointingInfo  `yaml:"pointing"`
	Time     TimeInfo      `yaml:"time"`
	Pol      PolInfo       `yaml:"polarization"`
	Slots    []SlotInfo    `yaml:"baselines"`
	Antennas []AntennaInfo `yaml:"antennas"`

	ScansExpected int `yaml:"scans_expected"`
	ScansWritten  int `yaml:"scans_written"`
}

type SiteInfo struct {
	LatitudeDeg  float64    `yaml:"latitude_deg"`
	LongitudeDeg float64    `yaml:"longitude_deg"`
	HeightM      float64    `yaml:"height_m"`
	ECEF         [3]float64 `yaml:"ecef_m,flow"`
}

type SpectralInfo struct {
	Channels    int     `yaml:"channels"`
	CentFreqHz  float64 `yaml:"cent_freq_hz"`
	FreqDeltaHz float64 `yaml:"freq_delta_hz"`
}

type PointingInfo struct {
	RAHours    float64 `yaml:"ra_hours"`
	DecDegrees float64 `yaml:"dec_degrees"`
}

type TimeInfo struct {
	JDStart    float64 `yaml:"jd_start"`
	JDDayTrunc float64 `yaml:"jd_day_trunc"`
	IntTimeS   float64 `yaml:"int_time_s"`
}

type PolInfo struct {
	Products string `yaml:"products"`
	Type     int    `yaml:"type"`
	Count    int    `yaml:"count"`
}

type SlotInfo struct {
	Slot int     `yaml:"slot"`
	Ant1 int     `yaml:"ant1"`
	Ant2 int     `yaml:"ant2"`
	Code float32 `yaml:"code"`
}

type AntennaInfo struct {
	Number  int        `yaml:"number"`
	Name    string     `yaml:"name"`
	XYZ     [3]float64 `yaml:"xyz_m,flow"`
	Present bool       `yaml:"present"`
}

// NewManifest describes a run about to be written.
func NewManifest(h *model.Header, obs *core.Observation, arr *model.Array, table *core.BaselineTable) *Manifest {
	ecef := core.GeodeticToECEF(arr.Site)
	m := &Manifest{
		Format:     FormatName,
		Version:    int(FrameVersion),
		Created:    time.Now().UTC(),
		Data:       DataName,
		Field:      h.FieldName,
		Telescope:  h.Telescope,
		Instrument: h.Instrument,
		Site: SiteInfo{
			LatitudeDeg:  arr.Site.LatitudeRad * 180 / math.Pi,
			LongitudeDeg: arr.Site.LongitudeRad * 180 / math.Pi,
			HeightM:      arr.Site.HeightM,
			ECEF:         [3]float64{ecef.X, ecef.Y, ecef.Z},
		},
		Spectral: SpectralInfo{
			Channels:    obs.NFreq,
			CentFreqHz:  obs.CentFreqHz,
			FreqDeltaHz: obs.FreqDeltaHz,
		},
		Pointing: PointingInfo{RAHours: obs.RAHours, DecDegrees: obs.DecDegrees},
		Time: TimeInfo{
			JDStart:    obs.JDStart,
			JDDayTrunc: obs.JDDayTrunc,
			IntTimeS:   h.IntTimeS,
		},
		Pol: PolInfo{
			Products: h.PolProducts,
			Type:     obs.PolType,
			Count:    obs.Pol.Len(),
		},
		ScansExpected: h.NScans,
	}

	for slot := 0; slot < table.Len(); slot++ {
		p := table.Pair(slot)
		m.Slots = append(m.Slots, SlotInfo{
			Slot: slot,
			Ant1: p.A1 + 1,
			Ant2: p.A2 + 1,
			Code: core.EncodeBaseline(p.A1+1, p.A2+1),
		})
	}
	for _, a := range arr.Antennas {
		m.Antennas = append(m.Antennas, AntennaInfo{
			Number:  a.Number,
			Name:    a.Name,
			XYZ:     [3]float64{a.Position.X, a.Position.Y, a.Position.Z},
			Present: a.Present,
		})
	}
	return m
}

// Layout returns the frame dimensions the manifest describes.
func (m *Manifest) Layout() core.Layout {
	return core.Layout{NBaselines: len(m.Slots), NFreq: m.Spectral.Channels, NPol: m.Pol.Count}
}

func writeManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := filepath.Join(dir, ManifestName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, ManifestName))
}

// ReadManifest loads the manifest of a converted run.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Format != FormatName {
		return nil, fmt.Errorf("%s: unexpected format %q", ManifestName, m.Format)
	}
	return &m, nil
}
