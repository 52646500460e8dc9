package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	streamAuto  = "auto"
	streamCross = "cross"

	float32Size = 4
)

// StreamDecoder reads fixed-size channel blocks from the auto- and
// cross-correlation streams. Samples are little-endian float32; cross
// samples are interleaved (real, imaginary). Both streams are forward-only
// and read strictly in the order the caller requests blocks.
type StreamDecoder struct {
	auto  io.Reader
	cross io.Reader
	nFreq int

	raw   []byte
	block []float32
}

// NewStreamDecoder returns a decoder for blocks of nFreq channels. Either
// reader may be nil when the correlation mode never reads from it.
func NewStreamDecoder(auto, cross io.Reader, nFreq int) *StreamDecoder {
	return &StreamDecoder{
		auto:  auto,
		cross: cross,
		nFreq: nFreq,
		raw:   make([]byte, 2*nFreq*float32Size),
		block: make([]float32, 2*nFreq),
	}
}

// ReadCross reads one block of nFreq complex samples for inputs (inp1,
// inp2). The returned slice is reused by the next read.
func (d *StreamDecoder) ReadCross(inp1, inp2 int) ([]float32, error) {
	return d.read(d.cross, streamCross, 2, inp1, inp2)
}

// ReadAuto reads one block of nFreq real samples for input inp.
func (d *StreamDecoder) ReadAuto(inp int) ([]float32, error) {
	return d.read(d.auto, streamAuto, 1, inp, inp)
}

func (d *StreamDecoder) read(r io.Reader, stream string, perChan, inp1, inp2 int) ([]float32, error) {
	if r == nil {
		return nil, fmt.Errorf("%s stream: %w", stream, ErrMissingStream)
	}
	sample := perChan * float32Size
	raw := d.raw[:d.nFreq*sample]

	n, err := io.ReadFull(r, raw)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &ShortReadError{Stream: stream, Inp1: inp1, Inp2: inp2, Want: d.nFreq, Got: n / sample}
		}
		return nil, fmt.Errorf("read %s stream: %w", stream, err)
	}

	out := d.block[:d.nFreq*perChan]
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*float32Size:]))
	}
	return out, nil
}
