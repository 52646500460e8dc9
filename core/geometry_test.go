package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/corrvis/model"
)

const deg = math.Pi / 180

func TestCalcUVWZenith(t *testing.T) {
	// At HA=0 and dec equal to the latitude the source is at zenith, so w
	// is the height above the array centre.
	lat := -26.7 * deg
	p := ENHToLocalXYZ(100, 50, 3, lat)
	uvw := CalcUVW(0, lat, p)
	if math.Abs(uvw.U-100) > 1e-9 || math.Abs(uvw.V-50) > 1e-9 || math.Abs(uvw.W-3) > 1e-9 {
		t.Fatalf("uvw = %+v, want (100, 50, 3)", uvw)
	}
}

func TestCalcUVWPreservesLength(t *testing.T) {
	p := Vec3{X: 12, Y: -340, Z: 56}
	for _, ha := range []float64{0, 0.3, 2.1, -1.4} {
		for _, dec := range []float64{-1.2, 0, 0.7} {
			uvw := CalcUVW(ha, dec, p)
			n := math.Sqrt(uvw.U*uvw.U + uvw.V*uvw.V + uvw.W*uvw.W)
			if math.Abs(n-p.Norm()) > 1e-9 {
				t.Fatalf("ha=%v dec=%v: |uvw| = %v, want %v", ha, dec, n, p.Norm())
			}
		}
	}
}

func TestENHToLocalXYZEquator(t *testing.T) {
	p := ENHToLocalXYZ(1, 2, 3, 0)
	if p != (Vec3{X: 3, Y: 1, Z: 2}) {
		t.Fatalf("p = %+v, want {3 1 2}", p)
	}
}

func TestGeodeticToECEF(t *testing.T) {
	equator := GeodeticToECEF(model.Site{})
	if math.Abs(equator.X-6378137) > 1e-6 || equator.Y != 0 || equator.Z != 0 {
		t.Fatalf("equator = %+v", equator)
	}
	pole := GeodeticToECEF(model.Site{LatitudeRad: math.Pi / 2})
	if math.Abs(pole.Z-6356752.314) > 1e-3 {
		t.Fatalf("pole Z = %v, want 6356752.314", pole.Z)
	}
}

func TestHorizonCoords(t *testing.T) {
	lat := -26.7 * deg
	_, el := HorizonCoords(0, lat, lat)
	if math.Abs(el-math.Pi/2) > 1e-9 {
		t.Fatalf("zenith el = %v", el)
	}

	// Dec 0 at HA 0 from a southern site lies due north.
	az, el := HorizonCoords(0, 0, lat)
	if math.Abs(az) > 1e-9 || math.Abs(el-(math.Pi/2+lat)) > 1e-9 {
		t.Fatalf("az,el = %v,%v", az, el)
	}

	// Positive hour angle means the source has set towards the west.
	az, _ = HorizonCoords(0.5, 0, lat)
	if az < math.Pi || az > 2*math.Pi {
		t.Fatalf("az = %v, want western half", az)
	}
}

func TestVec3Helpers(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 2}
	if a.Norm() != 3 {
		t.Fatalf("Norm = %v", a.Norm())
	}
	if d := a.Sub(Vec3{X: 1}); d != (Vec3{Y: 2, Z: 2}) {
		t.Fatalf("Sub = %+v", d)
	}
	if a.Dot(Vec3{X: 1, Y: 1, Z: 1}) != 5 {
		t.Fatalf("Dot = %v", a.Dot(Vec3{X: 1, Y: 1, Z: 1}))
	}
	r := Vec3{X: 1}.rotateZ(math.Pi / 2)
	if math.Abs(r.X) > 1e-12 || math.Abs(r.Y-1) > 1e-12 {
		t.Fatalf("rotateZ = %+v", r)
	}
}
