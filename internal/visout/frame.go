// Package visout is the bundled scan serializer. Scans are appended as
// binary frames to a zstd-compressed data file, and a YAML manifest written
// on Finalize describes the run.
//
// Frame layout (little-endian):
//
//	offset | size | type    | field
//	0      | 2    | uint16  | magic 0x5643 ("VC")
//	2      | 1    | uint8   | version
//	3      | 1    | uint8   | reserved
//	4      | 4    | uint32  | scan index
//	8      | 4    | uint32  | baselines
//	12     | 4    | uint32  | channels
//	16     | 4    | uint32  | pol products
//	20     | 8    | float64 | Julian date of scan midpoint
//	28     | 8    | float64 | offset from the truncated Julian day
//	36     | ...  |         | u, v, w []float64 (seconds), baseline []float32,
//	       |      |         | vis []float32 (re, im), weights []float32
package visout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/signalsfoundry/corrvis/core"
)

const (
	FrameMagic   uint16 = 0x5643
	FrameVersion uint8  = 1
)

// Bounds on the dimensions a frame header may declare. The baseline cap is
// the reach of the 2048-antenna baseline encoding.
const (
	maxFrameBaselines = 2048 * 2049 / 2
	maxFrameChannels  = 1 << 16
	maxFramePols      = 4
	maxFrameFloats    = 1 << 28
)

// ErrBadFrame reports a frame that does not parse.
var ErrBadFrame = errors.New("malformed visibility frame")

// Frame is one decoded scan.
type Frame struct {
	Scan       int
	JD         float64
	OffsetDays float64
	Layout     core.Layout

	U, V, W  []float64
	Baseline []float32
	Vis      []float32
	Weights  []float32
}

// Visibility returns the sample for (slot, chan, pol).
func (f *Frame) Visibility(slot, ch, pol int) complex64 {
	i := f.Layout.VisIndex(slot, ch, pol)
	return complex(f.Vis[i], f.Vis[i+1])
}

type frameHeader struct {
	Magic      uint16
	Version    uint8
	Reserved   uint8
	Scan       uint32
	NBaselines uint32
	NFreq      uint32
	NPol       uint32
	JD         float64
	OffsetDays float64
}

func writeFrame(w io.Writer, buf *core.ScanBuffers, offsetDays float64) error {
	l := buf.Layout
	hdr := frameHeader{
		Magic:      FrameMagic,
		Version:    FrameVersion,
		Scan:       uint32(buf.Scan),
		NBaselines: uint32(l.NBaselines),
		NFreq:      uint32(l.NFreq),
		NPol:       uint32(l.NPol),
		JD:         buf.JD,
		OffsetDays: offsetDays,
	}
	for _, v := range []any{hdr, buf.U, buf.V, buf.W, buf.Baseline, buf.Vis, buf.Weights} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// frameLayout checks the header's dimensions before anything is allocated
// for the body. A non-nil want must match exactly.
func frameLayout(hdr frameHeader, want *core.Layout) (core.Layout, error) {
	nb, nf, np := uint64(hdr.NBaselines), uint64(hdr.NFreq), uint64(hdr.NPol)
	switch {
	case nb == 0 || nf == 0 || np == 0:
		return core.Layout{}, fmt.Errorf("%w: scan %d has an empty layout %dx%dx%d", ErrBadFrame, hdr.Scan, nb, nf, np)
	case nb > maxFrameBaselines || nf > maxFrameChannels || np > maxFramePols || nb*nf*np*2 > maxFrameFloats:
		return core.Layout{}, fmt.Errorf("%w: scan %d layout %dx%dx%d out of bounds", ErrBadFrame, hdr.Scan, nb, nf, np)
	}
	l := core.Layout{NBaselines: int(nb), NFreq: int(nf), NPol: int(np)}
	if want != nil && l != *want {
		return core.Layout{}, fmt.Errorf("%w: scan %d layout %+v, manifest says %+v", ErrBadFrame, hdr.Scan, l, *want)
	}
	return l, nil
}

func readFrame(r io.Reader, want *core.Layout) (*Frame, error) {
	var hdr frameHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: header: %v", ErrBadFrame, err)
	}
	if hdr.Magic != FrameMagic {
		return nil, fmt.Errorf("%w: magic 0x%04x", ErrBadFrame, hdr.Magic)
	}
	if hdr.Version != FrameVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFrame, hdr.Version)
	}

	l, err := frameLayout(hdr, want)
	if err != nil {
		return nil, err
	}
	f := &Frame{
		Scan:       int(hdr.Scan),
		JD:         hdr.JD,
		OffsetDays: hdr.OffsetDays,
		Layout:     l,
		U:          make([]float64, l.NBaselines),
		V:          make([]float64, l.NBaselines),
		W:          make([]float64, l.NBaselines),
		Baseline:   make([]float32, l.NBaselines),
		Vis:        make([]float32, l.VisLen()),
		Weights:    make([]float32, l.WeightLen()),
	}
	for _, v := range []any{f.U, f.V, f.W, f.Baseline, f.Vis, f.Weights} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: scan %d body: %v", ErrBadFrame, f.Scan, err)
		}
	}
	return f, nil
}
