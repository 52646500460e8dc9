package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func encodeFloats(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func TestStreamDecoderReadsBlocks(t *testing.T) {
	auto := bytes.NewReader(encodeFloats(1, 2, 3))
	cross := bytes.NewReader(encodeFloats(1, -1, 2, -2, 3, -3))
	d := NewStreamDecoder(auto, cross, 3)

	a, err := d.ReadAuto(0)
	if err != nil {
		t.Fatalf("ReadAuto: %v", err)
	}
	if len(a) != 3 || a[2] != 3 {
		t.Fatalf("auto block = %v", a)
	}

	c, err := d.ReadCross(0, 1)
	if err != nil {
		t.Fatalf("ReadCross: %v", err)
	}
	want := []float32{1, -1, 2, -2, 3, -3}
	for i := range want {
		if c[i] != want[i] {
			t.Fatalf("cross block = %v, want %v", c, want)
		}
	}
}

func TestStreamDecoderShortRead(t *testing.T) {
	// one and a half channels of a two-channel cross block
	cross := bytes.NewReader(encodeFloats(1, 1, 2))
	d := NewStreamDecoder(nil, cross, 2)

	_, err := d.ReadCross(3, 4)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
	var sre *ShortReadError
	if !errors.As(err, &sre) {
		t.Fatalf("err = %T, want *ShortReadError", err)
	}
	if sre.Stream != streamCross || sre.Inp1 != 3 || sre.Inp2 != 4 || sre.Want != 2 || sre.Got != 1 {
		t.Fatalf("unexpected short read detail: %+v", sre)
	}
}

func TestStreamDecoderEmptyStream(t *testing.T) {
	d := NewStreamDecoder(bytes.NewReader(nil), nil, 4)
	_, err := d.ReadAuto(0)
	var sre *ShortReadError
	if !errors.As(err, &sre) || sre.Got != 0 {
		t.Fatalf("err = %v, want short read with 0 channels", err)
	}
}

func TestStreamDecoderMissingStream(t *testing.T) {
	d := NewStreamDecoder(nil, nil, 4)
	if _, err := d.ReadCross(0, 1); !errors.Is(err, ErrMissingStream) {
		t.Fatalf("err = %v, want ErrMissingStream", err)
	}
}
