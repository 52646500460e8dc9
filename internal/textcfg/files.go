package textcfg

import (
	"context"
	"os"

	"github.com/signalsfoundry/corrvis/internal/logging"
	"github.com/signalsfoundry/corrvis/model"
)

// Files loads run configuration from paths on disk.
type Files struct {
	HeaderPath     string
	InstrumentPath string
	AntennaPath    string

	// Log receives warnings about the header file. Nil discards them.
	Log logging.Logger
}

// LoadHeader implements core.HeaderSource.
func (f Files) LoadHeader() (*model.Header, error) {
	fh, err := os.Open(f.HeaderPath)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	ctx := context.Background()
	if f.Log != nil {
		ctx = logging.ContextWithLogger(ctx, f.Log)
	}
	return ParseHeader(ctx, fh, f.HeaderPath)
}

// LoadInputs implements core.InputSource.
func (f Files) LoadInputs() (*model.InputConfig, error) {
	fh, err := os.Open(f.InstrumentPath)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ParseInputs(fh, f.InstrumentPath)
}

// LoadAntennas implements core.AntennaSource.
func (f Files) LoadAntennas(site model.Site) ([]model.Antenna, error) {
	fh, err := os.Open(f.AntennaPath)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ParseAntennas(fh, f.AntennaPath, site.LatitudeRad)
}
