package core

import (
	"math"
	"math/cmplx"

	"github.com/signalsfoundry/corrvis/model"
)

// PairSpec describes one decoded input pair after canonicalization.
type PairSpec struct {
	Inp1, Inp2 int
	// Ant1 <= Ant2 after canonicalization (0-based).
	Ant1, Ant2 int
	Slot       int
	Pol        int
	// Reversed is set when the inputs were swapped to put the lower
	// antenna first; the sample is then conjugated.
	Reversed bool
	// Baseline is uvw[Ant1] - uvw[Ant2] in metres.
	Baseline UVW
	// Delay is the differential cable length in metres, sign already
	// adjusted for Reversed.
	Delay   float64
	Flagged bool
}

// Auto reports whether the pair is an autocorrelation of a single input.
func (p PairSpec) Auto() bool { return p.Inp1 == p.Inp2 }

// Assembler turns decoded channel blocks into phase-corrected visibilities.
type Assembler struct {
	layout      Layout
	centMHz     float64
	bwMHz       float64
	invert      bool
	conjugate   bool
	geomCorrect bool
	weight      float32
}

// NewAssembler configures the assembler from the header. weight is the
// nominal per-visibility weight.
func NewAssembler(h *model.Header, layout Layout, weight float32) *Assembler {
	return &Assembler{
		layout:      layout,
		centMHz:     h.CentFreqMHz,
		bwMHz:       h.BandwidthMHz,
		invert:      h.InvertFreq,
		conjugate:   h.Conjugate,
		geomCorrect: h.GeomCorrect,
		weight:      weight,
	}
}

// NominalWeight returns the weight used for visibilities: the integration
// time in seconds, or 1 when it is not set.
func NominalWeight(intTimeS float64) float32 {
	if intTimeS > 0 {
		return float32(intTimeS)
	}
	return 1.0
}

// ChannelFrequencyMHz returns the sky frequency of channel ch.
func ChannelFrequencyMHz(centMHz, bwMHz float64, nChan, ch int, invert bool) float64 {
	sign := 1.0
	if invert {
		sign = -1.0
	}
	return centMHz + sign*(float64(ch)-float64(nChan)/2.0)/float64(nChan)*bwMHz
}

// PhaseFactor returns exp(-2πi·pathM/λ) for a path length in metres at
// frequency freqMHz.
func PhaseFactor(pathM, freqMHz float64) complex128 {
	lambda := (SpeedOfLight / 1e6) / freqMHz
	return cmplx.Exp(complex(0, -2*math.Pi*pathM/lambda))
}

// Assemble writes one pair's channels, baseline geometry and weights into
// buf and returns the number of weights written as flagged.
func (a *Assembler) Assemble(buf *ScanBuffers, p PairSpec, block []float32) int {
	buf.Baseline[p.Slot] = EncodeBaseline(p.Ant1+1, p.Ant2+1)
	buf.U[p.Slot] = p.Baseline.U / SpeedOfLight
	buf.V[p.Slot] = p.Baseline.V / SpeedOfLight
	buf.W[p.Slot] = p.Baseline.W / SpeedOfLight

	w := p.Baseline.W
	if !a.geomCorrect {
		w = 0
	}

	weight := a.weight
	flagged := 0
	if p.Flagged && weight > 0 {
		weight = -weight
	}

	nFreq := a.layout.NFreq
	for ch := 0; ch < nFreq; ch++ {
		vi := a.layout.VisIndex(p.Slot, ch, p.Pol)
		buf.Weights[a.layout.WeightIndex(p.Slot, ch, p.Pol)] = weight
		if weight < 0 {
			flagged++
		}

		if p.Auto() {
			// Autocorrelations carry no baseline phase.
			buf.Vis[vi] = block[ch]
			buf.Vis[vi+1] = 0
			continue
		}

		im := float64(block[2*ch+1])
		if a.conjugate {
			im = -im
		}
		vis := complex(float64(block[2*ch]), im)
		if p.Reversed {
			vis = cmplx.Conj(vis)
		}
		freq := ChannelFrequencyMHz(a.centMHz, a.bwMHz, nFreq, ch, a.invert)
		vis *= PhaseFactor(w+p.Delay, freq)

		buf.Vis[vi] = float32(real(vis))
		buf.Vis[vi+1] = float32(imag(vis))
	}
	return flagged
}
