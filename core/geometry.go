package core

import (
	"math"

	"github.com/signalsfoundry/corrvis/model"
)

// SpeedOfLight in metres per second.
const SpeedOfLight = 299792458.0

// WGS84 ellipsoid.
const (
	wgs84SemiMajorM  = 6378137.0
	wgs84Flattening  = 1.0 / 298.257223563
	wgs84EccentricSq = wgs84Flattening * (2 - wgs84Flattening)
)

// Vec3 is a position or baseline vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// FromPosition converts a model position into a Vec3.
func FromPosition(p model.Position) Vec3 {
	return Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// rotateZ rotates the vector (not the axes) by angle a about Z.
func (v Vec3) rotateZ(a float64) Vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return Vec3{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y, Z: v.Z}
}

// UVW is a baseline or antenna position projected onto the phase-centre
// frame. W points along the line of sight.
type UVW struct {
	U, V, W float64
}

// Sub returns a - b.
func (a UVW) Sub(b UVW) UVW {
	return UVW{U: a.U - b.U, V: a.V - b.V, W: a.W - b.W}
}

// Scale multiplies every component by k.
func (a UVW) Scale(k float64) UVW {
	return UVW{U: a.U * k, V: a.V * k, W: a.W * k}
}

// CalcUVW projects a local XYZ position onto the (u,v,w) frame of a phase
// centre at hour angle ha and declination dec (radians).
func CalcUVW(ha, dec float64, p Vec3) UVW {
	sh, ch := math.Sin(ha), math.Cos(ha)
	sd, cd := math.Sin(dec), math.Cos(dec)
	return UVW{
		U: sh*p.X + ch*p.Y,
		V: -sd*ch*p.X + sd*sh*p.Y + cd*p.Z,
		W: cd*ch*p.X - cd*sh*p.Y + sd*p.Z,
	}
}

// ENHToLocalXYZ converts east/north/height offsets from the array centre
// into the local XYZ frame at geodetic latitude lat.
func ENHToLocalXYZ(east, north, height, lat float64) Vec3 {
	sl, cl := math.Sin(lat), math.Cos(lat)
	return Vec3{
		X: -north*sl + height*cl,
		Y: east,
		Z: north*cl + height*sl,
	}
}

// GeodeticToECEF returns the Earth-centred XYZ position of a WGS84 site.
func GeodeticToECEF(site model.Site) Vec3 {
	sl, cl := math.Sin(site.LatitudeRad), math.Cos(site.LatitudeRad)
	n := wgs84SemiMajorM / math.Sqrt(1-wgs84EccentricSq*sl*sl)
	return Vec3{
		X: (n + site.HeightM) * cl * math.Cos(site.LongitudeRad),
		Y: (n + site.HeightM) * cl * math.Sin(site.LongitudeRad),
		Z: (n*(1-wgs84EccentricSq) + site.HeightM) * sl,
	}
}

// HorizonCoords converts hour angle and declination into azimuth (east of
// north) and elevation for an observer at latitude lat. All radians.
func HorizonCoords(ha, dec, lat float64) (az, el float64) {
	sh, ch := math.Sin(ha), math.Cos(ha)
	sd, cd := math.Sin(dec), math.Cos(dec)
	sl, cl := math.Sin(lat), math.Cos(lat)

	x := -ch*cd*sl + sd*cl
	y := -sh * cd
	z := ch*cd*cl + sd*sl

	r := math.Hypot(x, y)
	if r != 0 {
		az = math.Atan2(y, x)
		if az < 0 {
			az += 2 * math.Pi
		}
	}
	el = math.Atan2(z, r)
	return az, el
}
