package core

// Layout fixes the shape of one scan's output. Visibilities are stored as
// interleaved (real, imaginary) float32 pairs ordered baseline-major, then
// channel, then polarization product:
//
//	vis[slot*NPol*NFreq*2 + chan*NPol*2 + pol*2 + {0,1}]
//
// Weights use the same ordering without the complex component.
type Layout struct {
	NBaselines int
	NFreq      int
	NPol       int
}

// VisIndex returns the offset of the real part for (slot, chan, pol).
func (l Layout) VisIndex(slot, ch, pol int) int {
	return slot*l.NPol*l.NFreq*2 + ch*l.NPol*2 + pol*2
}

// WeightIndex returns the weight offset for (slot, chan, pol).
func (l Layout) WeightIndex(slot, ch, pol int) int {
	return slot*l.NPol*l.NFreq + ch*l.NPol + pol
}

// VisLen is the number of float32 values in a visibility buffer.
func (l Layout) VisLen() int { return l.NBaselines * l.NFreq * l.NPol * 2 }

// WeightLen is the number of float32 values in a weight buffer.
func (l Layout) WeightLen() int { return l.NBaselines * l.NFreq * l.NPol }

// ScanBuffers holds one scan of assembled output. They are allocated once
// per run and overwritten for every scan, so consumers must copy anything
// they keep.
type ScanBuffers struct {
	Layout Layout

	// Scan is the 0-based index of the scan currently held.
	Scan int
	// JD is the Julian date of the scan midpoint.
	JD float64

	Vis     []float32
	Weights []float32

	// U, V, W per baseline slot, in seconds (metres / c).
	U []float64
	V []float64
	W []float64

	// Baseline holds the encoded antenna pair per slot.
	Baseline []float32
}

// NewScanBuffers allocates zeroed buffers for layout l.
func NewScanBuffers(l Layout) *ScanBuffers {
	return &ScanBuffers{
		Layout:   l,
		Vis:      make([]float32, l.VisLen()),
		Weights:  make([]float32, l.WeightLen()),
		U:        make([]float64, l.NBaselines),
		V:        make([]float64, l.NBaselines),
		W:        make([]float64, l.NBaselines),
		Baseline: make([]float32, l.NBaselines),
	}
}

// Visibility returns the stored sample for (slot, chan, pol).
func (b *ScanBuffers) Visibility(slot, ch, pol int) complex64 {
	i := b.Layout.VisIndex(slot, ch, pol)
	return complex(b.Vis[i], b.Vis[i+1])
}

// Weight returns the stored weight for (slot, chan, pol).
func (b *ScanBuffers) Weight(slot, ch, pol int) float32 {
	return b.Weights[b.Layout.WeightIndex(slot, ch, pol)]
}
