package model

import (
	"fmt"
	"strings"
)

// InputChannel is one physical correlator input.
type InputChannel struct {
	Input int
	// Antenna is the 0-based index of the antenna the input is wired to.
	Antenna int
	// Pol is the single-letter polarization label (X, Y, R or L).
	Pol byte
	// PolIndex is 0 for the first feed of a dual-polarized antenna (X or R)
	// and 1 for the second (Y or L).
	PolIndex int
	// CableDelta is the cable length relative to nominal, in metres.
	// Positive means longer than nominal.
	CableDelta float64
	Flagged    bool
}

// InputConfig is the ordered list of correlator inputs. The slice order is
// the enumeration order of the correlation products in both data streams.
type InputConfig struct {
	Inputs []InputChannel
}

// Len returns the number of inputs.
func (c *InputConfig) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Inputs)
}

// AntennaPresent reports whether any input is wired to antenna ant.
func (c *InputConfig) AntennaPresent(ant int) bool {
	if c == nil {
		return false
	}
	for _, in := range c.Inputs {
		if in.Antenna == ant {
			return true
		}
	}
	return false
}

// CountPresentAntennas returns the number of distinct antennas referenced by
// the inputs.
func (c *InputConfig) CountPresentAntennas() int {
	if c == nil {
		return 0
	}
	seen := make(map[int]struct{}, len(c.Inputs))
	for _, in := range c.Inputs {
		seen[in.Antenna] = struct{}{}
	}
	return len(seen)
}

// PolIndexForLabel maps a polarization letter to its feed index.
func PolIndexForLabel(label byte) (int, error) {
	switch strings.ToUpper(string(label)) {
	case "X", "R":
		return 0, nil
	case "Y", "L":
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown polarization label %q", label)
	}
}
