package core

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/signalsfoundry/corrvis/model"
)

func assemblerHeader() *model.Header {
	return &model.Header{
		Mode:         model.CorrBoth,
		NChans:       4,
		IntTimeS:     8,
		CentFreqMHz:  150,
		BandwidthMHz: 1.28,
		GeomCorrect:  true,
	}
}

func closeComplex(a, b complex128, tol float64) bool {
	return cmplx.Abs(a-b) <= tol
}

func TestAssembleReversalConjugates(t *testing.T) {
	h := assemblerHeader()
	l := Layout{NBaselines: 1, NFreq: 4, NPol: 1}
	a := NewAssembler(h, l, NominalWeight(h.IntTimeS))
	block := []float32{3, 4, 1, -2, 0.5, 0.25, -1, 1}

	fwd := NewScanBuffers(l)
	rev := NewScanBuffers(l)
	base := UVW{U: 120, V: -40, W: 17.5}

	a.Assemble(fwd, PairSpec{Inp1: 0, Inp2: 1, Baseline: base, Delay: 2.5}, block)
	a.Assemble(rev, PairSpec{Inp1: 0, Inp2: 1, Baseline: base.Scale(-1), Delay: -2.5, Reversed: true}, block)

	for ch := 0; ch < l.NFreq; ch++ {
		f := complex128(fwd.Visibility(0, ch, 0))
		r := complex128(rev.Visibility(0, ch, 0))
		if !closeComplex(f, cmplx.Conj(r), 1e-5) {
			t.Fatalf("chan %d: forward %v is not the conjugate of reversed %v", ch, f, r)
		}
	}
}

func TestAssembleNoGeometryNoDelay(t *testing.T) {
	h := assemblerHeader()
	h.GeomCorrect = false
	l := Layout{NBaselines: 1, NFreq: 4, NPol: 1}
	a := NewAssembler(h, l, NominalWeight(h.IntTimeS))

	block := make([]float32, 8)
	for ch := 0; ch < 4; ch++ {
		block[2*ch], block[2*ch+1] = 3, 4
	}

	tests := []struct {
		name     string
		reversed bool
		want     complex64
	}{
		{"forward", false, complex(3, 4)},
		{"reversed", true, complex(3, -4)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := NewScanBuffers(l)
			a.Assemble(buf, PairSpec{Inp1: 0, Inp2: 1, Baseline: UVW{W: 1234}, Reversed: tc.reversed}, block)
			for ch := 0; ch < 4; ch++ {
				if got := buf.Visibility(0, ch, 0); got != tc.want {
					t.Fatalf("chan %d = %v, want %v", ch, got, tc.want)
				}
			}
			// w is still reported even though it is not applied.
			if math.Abs(buf.W[0]-1234/SpeedOfLight) > 1e-15 {
				t.Fatalf("W = %g, want %g", buf.W[0], 1234/SpeedOfLight)
			}
		})
	}
}

func TestAssembleQuarterWavePhase(t *testing.T) {
	h := assemblerHeader()
	h.CentFreqMHz = SpeedOfLight / 1e6 // 1 m wavelength
	h.BandwidthMHz = 0
	h.NChans = 1
	l := Layout{NBaselines: 1, NFreq: 1, NPol: 1}
	a := NewAssembler(h, l, 1)

	buf := NewScanBuffers(l)
	a.Assemble(buf, PairSpec{Inp1: 0, Inp2: 1, Baseline: UVW{W: 0.25}}, []float32{1, 0})
	if got := complex128(buf.Visibility(0, 0, 0)); !closeComplex(got, -1i, 1e-6) {
		t.Fatalf("vis = %v, want -i", got)
	}
}

func TestAssembleConjugateHeader(t *testing.T) {
	h := assemblerHeader()
	h.Conjugate = true
	h.GeomCorrect = false
	l := Layout{NBaselines: 1, NFreq: 1, NPol: 1}
	a := NewAssembler(h, l, 1)

	buf := NewScanBuffers(l)
	a.Assemble(buf, PairSpec{Inp1: 0, Inp2: 1}, []float32{2, 5})
	if got := buf.Visibility(0, 0, 0); got != complex64(complex(2, -5)) {
		t.Fatalf("vis = %v, want (2-5i)", got)
	}
}

func TestAssembleAutoIsRealAndUnrotated(t *testing.T) {
	h := assemblerHeader()
	l := Layout{NBaselines: 1, NFreq: 4, NPol: 2}
	a := NewAssembler(h, l, NominalWeight(h.IntTimeS))

	buf := NewScanBuffers(l)
	a.Assemble(buf, PairSpec{Inp1: 2, Inp2: 2, Pol: 1, Delay: 3.7}, []float32{10, 11, 12, 13})
	for ch := 0; ch < 4; ch++ {
		want := complex64(complex(float32(10+ch), 0))
		if got := buf.Visibility(0, ch, 1); got != want {
			t.Fatalf("chan %d = %v, want %v", ch, got, want)
		}
		if got := buf.Visibility(0, ch, 0); got != 0 {
			t.Fatalf("pol 0 touched: %v", got)
		}
	}
	if buf.Baseline[0] != EncodeBaseline(1, 1) {
		t.Fatalf("baseline code = %v, want %v", buf.Baseline[0], EncodeBaseline(1, 1))
	}
}

func TestAssembleWeights(t *testing.T) {
	h := assemblerHeader()
	l := Layout{NBaselines: 2, NFreq: 4, NPol: 1}
	a := NewAssembler(h, l, NominalWeight(h.IntTimeS))
	buf := NewScanBuffers(l)
	block := make([]float32, 8)

	if n := a.Assemble(buf, PairSpec{Inp1: 0, Inp2: 1, Slot: 0}, block); n != 0 {
		t.Fatalf("unflagged pair reported %d flagged weights", n)
	}
	if n := a.Assemble(buf, PairSpec{Inp1: 0, Inp2: 2, Slot: 1, Flagged: true}, block); n != 4 {
		t.Fatalf("flagged pair reported %d flagged weights, want 4", n)
	}
	for ch := 0; ch < 4; ch++ {
		if w := buf.Weight(0, ch, 0); w != 8 {
			t.Fatalf("slot 0 chan %d weight = %v, want 8", ch, w)
		}
		if w := buf.Weight(1, ch, 0); w != -8 {
			t.Fatalf("slot 1 chan %d weight = %v, want -8", ch, w)
		}
	}
}

func TestNominalWeight(t *testing.T) {
	if NominalWeight(0) != 1 {
		t.Fatalf("NominalWeight(0) = %v, want 1", NominalWeight(0))
	}
	if NominalWeight(2) != 2 {
		t.Fatalf("NominalWeight(2) = %v, want 2", NominalWeight(2))
	}
}

func TestChannelFrequency(t *testing.T) {
	if got := ChannelFrequencyMHz(150, 1.28, 4, 0, false); math.Abs(got-149.36) > 1e-9 {
		t.Fatalf("chan 0 = %v, want 149.36", got)
	}
	if got := ChannelFrequencyMHz(150, 1.28, 4, 0, true); math.Abs(got-150.64) > 1e-9 {
		t.Fatalf("inverted chan 0 = %v, want 150.64", got)
	}
	if got := ChannelFrequencyMHz(150, 1.28, 4, 2, false); got != 150 {
		t.Fatalf("centre chan = %v, want 150", got)
	}
}
