// Package ephem supplies the astronomical frame transforms used to phase
// correlator data: sidereal time, annual aberration and the combined
// precession-nutation rotation between J2000 and the true equator and
// equinox of date.
//
// Accuracy is at the level of the IAU 1976 precession model with the
// principal IAU 1980 nutation terms. The transforms are mutually consistent:
// Apparent is exactly PrecessionNutation applied to Aberrate, so any
// quantity projected on the phase-centre direction is frame invariant.
package ephem

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/mat"
)

const (
	// MJDOffset converts between Julian and Modified Julian dates.
	MJDOffset = 2400000.5
	// J2000 is the Julian date of the J2000.0 reference epoch.
	J2000 = 2451545.0

	arcsecToRad = math.Pi / (180.0 * 3600.0)

	// aberrationConstant is the constant of annual aberration, v/c of the
	// Earth's orbital motion.
	aberrationConstant = 20.49552 * arcsecToRad
)

// CalendarJD returns the Julian date for a UT calendar date and time of day.
func CalendarJD(year, month, day, hour, minute int, second float64) float64 {
	jd := satellite.JDay(year, month, day, 0, 0, 0)
	return jd + float64(hour)/24.0 + float64(minute)/1440.0 + second/86400.0
}

// Ranorm normalises an angle into [0, 2π).
func Ranorm(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Transformer implements the frame transforms. It is stateless and safe for
// concurrent use.
type Transformer struct{}

// New returns a Transformer.
func New() *Transformer { return &Transformer{} }

// GMST returns Greenwich mean sidereal time in radians.
func (Transformer) GMST(jd float64) float64 {
	return Ranorm(satellite.ThetaG_JD(jd))
}

// LMST returns local mean sidereal time in radians for an east longitude.
func (t Transformer) LMST(jd, lonRad float64) float64 {
	return Ranorm(t.GMST(jd) + lonRad)
}

// PrecessionNutation returns the matrix rotating a J2000 mean-frame vector
// into the true equator and equinox of date.
func (Transformer) PrecessionNutation(jd float64) mat.Matrix {
	var pn mat.Dense
	pn.Mul(nutationMatrix(jd), precessionMatrix(jd))
	return &pn
}

// Aberrate applies annual aberration to a J2000 mean position, returning
// the aberrated direction still referred to the J2000 frame.
func (Transformer) Aberrate(jd, ra, dec float64) (float64, float64) {
	s := Direction(ra, dec)
	v := earthVelocity(jd)
	var out mat.VecDense
	out.AddVec(s, v)
	return Spherical(&out)
}

// Apparent returns the apparent place of date for a J2000 mean position:
// aberration followed by precession and nutation.
func (t Transformer) Apparent(jd, ra, dec float64) (float64, float64) {
	raAb, decAb := t.Aberrate(jd, ra, dec)
	var out mat.VecDense
	out.MulVec(t.PrecessionNutation(jd), Direction(raAb, decAb))
	return Spherical(&out)
}

// Direction returns the unit vector for spherical coordinates.
func Direction(ra, dec float64) *mat.VecDense {
	cd := math.Cos(dec)
	return mat.NewVecDense(3, []float64{cd * math.Cos(ra), cd * math.Sin(ra), math.Sin(dec)})
}

// Spherical returns the normalised right ascension in [0, 2π) and the
// declination of a (not necessarily unit) vector.
func Spherical(v mat.Vector) (float64, float64) {
	x, y, z := v.AtVec(0), v.AtVec(1), v.AtVec(2)
	r := math.Hypot(x, y)
	ra := 0.0
	if r != 0 {
		ra = Ranorm(math.Atan2(y, x))
	}
	return ra, math.Atan2(z, r)
}

func centuries(jd float64) float64 { return (jd - J2000) / 36525.0 }

// precessionMatrix is the IAU 1976 (Lieske) precession from J2000 to date.
func precessionMatrix(jd float64) *mat.Dense {
	t := centuries(jd)
	zeta := (2306.2181*t + 0.30188*t*t + 0.017998*t*t*t) * arcsecToRad
	z := (2306.2181*t + 1.09468*t*t + 0.018203*t*t*t) * arcsecToRad
	theta := (2004.3109*t - 0.42665*t*t - 0.041833*t*t*t) * arcsecToRad

	var zt, p mat.Dense
	zt.Mul(rotZ(-z), rotY(theta))
	p.Mul(&zt, rotZ(-zeta))
	return &p
}

// meanObliquity returns the IAU 1980 mean obliquity of the ecliptic.
func meanObliquity(jd float64) float64 {
	t := centuries(jd)
	return (84381.448 - 46.8150*t - 0.00059*t*t + 0.001813*t*t*t) * arcsecToRad
}

// nutationAngles returns the nutation in longitude and obliquity from the
// four largest terms of the IAU 1980 series.
func nutationAngles(jd float64) (dpsi, deps float64) {
	t := centuries(jd)
	deg := math.Pi / 180.0
	omega := (125.04452 - 1934.136261*t) * deg
	lSun := (280.4665 + 36000.7698*t) * deg
	lMoon := (218.3165 + 481267.8813*t) * deg

	dpsi = -17.20*math.Sin(omega) - 1.32*math.Sin(2*lSun) - 0.23*math.Sin(2*lMoon) + 0.21*math.Sin(2*omega)
	deps = 9.20*math.Cos(omega) + 0.57*math.Cos(2*lSun) + 0.10*math.Cos(2*lMoon) - 0.09*math.Cos(2*omega)
	return dpsi * arcsecToRad, deps * arcsecToRad
}

func nutationMatrix(jd float64) *mat.Dense {
	eps := meanObliquity(jd)
	dpsi, deps := nutationAngles(jd)

	var ep, n mat.Dense
	ep.Mul(rotX(-(eps + deps)), rotZ(-dpsi))
	n.Mul(&ep, rotX(eps))
	return &n
}

// sunLongitude is the Sun's geometric ecliptic longitude, low precision.
func sunLongitude(jd float64) float64 {
	t := centuries(jd)
	deg := math.Pi / 180.0
	l0 := 280.46646 + 36000.76983*t
	m := (357.52911 + 35999.05029*t) * deg
	c := (1.914602-0.004817*t)*math.Sin(m) + 0.019993*math.Sin(2*m) + 0.000289*math.Sin(3*m)
	return (l0 + c) * deg
}

// earthVelocity returns the Earth's orbital velocity in units of c,
// equatorial J2000 axes, ignoring orbital eccentricity.
func earthVelocity(jd float64) *mat.VecDense {
	lambda := sunLongitude(jd)
	eps := meanObliquity(J2000)
	k := aberrationConstant
	return mat.NewVecDense(3, []float64{
		k * math.Sin(lambda),
		-k * math.Cos(lambda) * math.Cos(eps),
		-k * math.Cos(lambda) * math.Sin(eps),
	})
}

// Frame rotations (rotate the axes, not the vector) about X, Y and Z.

func rotX(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, s,
		0, -s, c,
	})
}

func rotY(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(3, 3, []float64{
		c, 0, -s,
		0, 1, 0,
		s, 0, c,
	})
}

func rotZ(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}
