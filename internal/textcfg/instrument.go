package textcfg

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/signalsfoundry/corrvis/model"
)

// ParseInputs reads "INPUT ANTENNA POL DELTA FLAG" lines. Inputs are
// returned ordered by input number, which must run from 0 without gaps.
func ParseInputs(r io.Reader, file string) (*model.InputConfig, error) {
	cfg := &model.InputConfig{}
	err := eachLine(r, file, func(f []string) error {
		if len(f) < 5 {
			return fmt.Errorf("want 5 fields, got %d", len(f))
		}
		in, err := parseInput(f)
		if err != nil {
			return err
		}
		cfg.Inputs = append(cfg.Inputs, in)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(cfg.Inputs, func(i, j int) bool { return cfg.Inputs[i].Input < cfg.Inputs[j].Input })
	for i, in := range cfg.Inputs {
		if in.Input != i {
			return nil, fmt.Errorf("%s: input numbers must run from 0 without gaps, found %d at position %d", file, in.Input, i)
		}
	}
	return cfg, nil
}

func parseInput(f []string) (model.InputChannel, error) {
	var in model.InputChannel
	var err error

	if in.Input, err = strconv.Atoi(f[0]); err != nil {
		return in, fmt.Errorf("input: %w", err)
	}
	if in.Antenna, err = strconv.Atoi(f[1]); err != nil {
		return in, fmt.Errorf("antenna: %w", err)
	}
	if len(f[2]) != 1 {
		return in, fmt.Errorf("polarization %q is not a single letter", f[2])
	}
	in.Pol = f[2][0]
	if in.PolIndex, err = model.PolIndexForLabel(in.Pol); err != nil {
		return in, err
	}
	if in.CableDelta, err = strconv.ParseFloat(f[3], 64); err != nil {
		return in, fmt.Errorf("cable delta: %w", err)
	}
	if in.Flagged, err = parseFlag(f[4]); err != nil {
		return in, fmt.Errorf("flag: %w", err)
	}
	if in.Input < 0 || in.Antenna < 0 {
		return in, fmt.Errorf("negative input or antenna index")
	}
	return in, nil
}
