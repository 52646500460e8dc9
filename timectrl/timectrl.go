// Package timectrl provides the scan time base of a conversion run.
package timectrl

import "math"

// siderealRate converts elapsed solar time into elapsed sidereal time.
const siderealRate = 1.00274

// Mode describes how geometry time advances from scan to scan.
type Mode int

const (
	// Tracking advances the time base and hour angle with every scan.
	Tracking Mode = iota
	// Locked freezes the geometry at scan zero so the phase centre stays
	// fixed in the sky relative to the array.
	Locked
)

func (m Mode) String() string {
	if m == Locked {
		return "locked"
	}
	return "tracking"
}

// ScanClock maps scan indices to timestamps and nominal hour angles.
type ScanClock struct {
	// StartJD is the Julian date of the midpoint of scan zero.
	StartJD float64
	// IntTimeS is the integration time per scan in seconds.
	IntTimeS float64
	// HAStartHours is the hour angle at the start of the observation.
	HAStartHours float64
	Mode         Mode
}

// NewScanClock constructs a clock.
func NewScanClock(startJD, intTimeS, haStartHours float64, mode Mode) *ScanClock {
	return &ScanClock{
		StartJD:      startJD,
		IntTimeS:     intTimeS,
		HAStartHours: haStartHours,
		Mode:         mode,
	}
}

// Timestamp returns the Julian date recorded for scan. It always advances,
// even when the geometry is locked.
func (c *ScanClock) Timestamp(scan int) float64 {
	return c.StartJD + float64(scan)*c.IntTimeS/86400.0
}

// GeometryJD returns the Julian date used to compute scan geometry.
func (c *ScanClock) GeometryJD(scan int) float64 {
	if c.Mode == Locked {
		return c.StartJD
	}
	return c.Timestamp(scan)
}

// HourAngle returns the nominal hour angle of the phase centre at the
// midpoint of scan, in radians.
func (c *ScanClock) HourAngle(scan int) float64 {
	if c.Mode == Locked {
		return c.HAStartHours * (math.Pi / 12.0)
	}
	hours := c.HAStartHours + (float64(scan)+0.5)*c.IntTimeS/3600.0*siderealRate
	return hours * (math.Pi / 12.0)
}
