package timectrl

import (
	"math"
	"testing"
)

func TestScanClockTrackingAdvances(t *testing.T) {
	c := NewScanClock(2455852.5, 8, 1.0, Tracking)

	if got := c.Timestamp(0); got != 2455852.5 {
		t.Fatalf("Timestamp(0) = %v, want start", got)
	}
	want := 2455852.5 + 3*8/86400.0
	if got := c.Timestamp(3); math.Abs(got-want) > 1e-12 {
		t.Fatalf("Timestamp(3) = %.12f, want %.12f", got, want)
	}
	if got := c.GeometryJD(3); got != c.Timestamp(3) {
		t.Fatalf("GeometryJD(3) = %v, want timestamp %v", got, c.Timestamp(3))
	}

	ha := c.HourAngle(2)
	wantHA := (1.0 + 2.5*8/3600.0*1.00274) * math.Pi / 12
	if math.Abs(ha-wantHA) > 1e-15 {
		t.Fatalf("HourAngle(2) = %v, want %v", ha, wantHA)
	}
}

func TestScanClockLockedFreezesGeometry(t *testing.T) {
	c := NewScanClock(2455852.5, 8, -0.5, Locked)

	if got := c.GeometryJD(10); got != c.StartJD {
		t.Fatalf("GeometryJD(10) = %v, want frozen start %v", got, c.StartJD)
	}
	if c.Timestamp(10) == c.StartJD {
		t.Fatalf("Timestamp should advance in locked mode")
	}
	if got, want := c.HourAngle(10), -0.5*math.Pi/12; got != want {
		t.Fatalf("HourAngle(10) = %v, want %v", got, want)
	}
	if Locked.String() != "locked" || Tracking.String() != "tracking" {
		t.Fatalf("unexpected mode names %q %q", Locked, Tracking)
	}
}
