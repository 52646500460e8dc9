package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/signalsfoundry/corrvis/model"
)

// FrameInvarianceTolerance bounds the w disagreement, in metres, between
// the two reference frames.
const FrameInvarianceTolerance = 1e-6

// ScanGeometry is the phase-centre geometry of one scan.
type ScanGeometry struct {
	JD   float64
	LMST float64

	// Apparent (epoch of date) phase centre.
	RAApparent  float64
	DecApparent float64
	HAApparent  float64

	// Aberrated phase centre referred to J2000, and the array's effective
	// sidereal time and latitude in that frame.
	RAAberrated  float64
	DecAberrated float64
	LMSTJ2000    float64
	LatJ2000     float64
	HAJ2000      float64

	// Per-antenna positions in metres. Epoch is kept for cross-validation
	// only; J2000 feeds the baselines.
	Epoch []UVW
	J2000 []UVW
}

// FrameResolver computes per-antenna (u,v,w) in the apparent frame of date
// and in the J2000 frame.
type FrameResolver struct {
	site  model.Site
	astro FrameTransformer
}

// NewFrameResolver returns a resolver for an array at site.
func NewFrameResolver(site model.Site, astro FrameTransformer) *FrameResolver {
	return &FrameResolver{site: site, astro: astro}
}

// Resolve computes the geometry at Julian date jd for a phase centre with
// J2000 mean coordinates (ra, dec) in radians.
func (r *FrameResolver) Resolve(jd, ra, dec float64, antennas []model.Antenna) *ScanGeometry {
	g := &ScanGeometry{
		JD:    jd,
		LMST:  r.astro.LMST(jd, r.site.LongitudeRad),
		Epoch: make([]UVW, len(antennas)),
		J2000: make([]UVW, len(antennas)),
	}

	g.RAApparent, g.DecApparent = r.astro.Apparent(jd, ra, dec)
	g.HAApparent = normalizeAngle(g.LMST - g.RAApparent)
	g.RAAberrated, g.DecAberrated = r.astro.Aberrate(jd, ra, dec)

	// toJ2000 undoes precession and nutation.
	toJ2000 := r.astro.PrecessionNutation(jd).T()

	zenith := rotateInto(toJ2000, Vec3{
		X: math.Cos(r.site.LatitudeRad) * math.Cos(g.LMST),
		Y: math.Cos(r.site.LatitudeRad) * math.Sin(g.LMST),
		Z: math.Sin(r.site.LatitudeRad),
	})
	g.LMSTJ2000 = math.Atan2(zenith.Y, zenith.X)
	g.LatJ2000 = math.Atan2(zenith.Z, math.Hypot(zenith.X, zenith.Y))
	g.HAJ2000 = normalizeAngle(g.LMSTJ2000 - g.RAAberrated)

	for i, ant := range antennas {
		p := FromPosition(ant.Position)
		g.Epoch[i] = CalcUVW(g.HAApparent, g.DecApparent, p)

		// local frame of date -> celestial of date -> J2000 -> local J2000
		cel := rotateInto(toJ2000, p.rotateZ(g.LMST))
		g.J2000[i] = CalcUVW(g.HAJ2000, g.DecAberrated, cel.rotateZ(-g.LMSTJ2000))
	}
	return g
}

// CheckFrameInvariance returns ErrFrameMismatch when any antenna's w differs
// between the frames by more than tol metres.
func (g *ScanGeometry) CheckFrameInvariance(tol float64) error {
	for i := range g.J2000 {
		if d := math.Abs(g.Epoch[i].W - g.J2000[i].W); d > tol {
			return fmt.Errorf("antenna %d: |Δw| = %g m: %w", i, d, ErrFrameMismatch)
		}
	}
	return nil
}

// FrameMismatches counts antennas whose w disagrees by more than tol.
func (g *ScanGeometry) FrameMismatches(tol float64) int {
	n := 0
	for i := range g.J2000 {
		if math.Abs(g.Epoch[i].W-g.J2000[i].W) > tol {
			n++
		}
	}
	return n
}

func rotateInto(m mat.Matrix, v Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// normalizeAngle maps a into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
