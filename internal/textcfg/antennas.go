package textcfg

import (
	"fmt"
	"io"
	"strconv"

	"github.com/signalsfoundry/corrvis/core"
	"github.com/signalsfoundry/corrvis/model"
)

// ParseAntennas reads "NAME EAST NORTH HEIGHT" lines (metres from the array
// centre) and converts them to local XYZ at latitude latRad. Antennas are
// numbered from 1 in file order.
func ParseAntennas(r io.Reader, file string, latRad float64) ([]model.Antenna, error) {
	var out []model.Antenna
	err := eachLine(r, file, func(f []string) error {
		if len(f) < 4 {
			return fmt.Errorf("want 4 fields, got %d", len(f))
		}
		var enh [3]float64
		for i := range enh {
			v, err := strconv.ParseFloat(f[i+1], 64)
			if err != nil {
				return fmt.Errorf("antenna %s: %w", f[0], err)
			}
			enh[i] = v
		}
		p := core.ENHToLocalXYZ(enh[0], enh[1], enh[2], latRad)
		out = append(out, model.Antenna{
			Number:   len(out) + 1,
			Name:     f[0],
			Position: model.Position{X: p.X, Y: p.Y, Z: p.Z},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no antennas", file)
	}
	return out, nil
}
