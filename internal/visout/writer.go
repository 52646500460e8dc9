package visout

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/signalsfoundry/corrvis/core"
)

// ErrFinalized reports a write after Finalize.
var ErrFinalized = errors.New("serializer already finalized")

// Writer appends scans to <dir>/vis.zst and writes the manifest on
// Finalize. It implements core.Serializer.
type Writer struct {
	dir      string
	f        *os.File
	zw       *zstd.Encoder
	bw       *bufio.Writer
	manifest *Manifest
	scans    int
	done     bool
}

// Create makes dir if needed and opens a new data file in it.
func Create(dir string, m *Manifest) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, DataName))
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &Writer{
		dir:      dir,
		f:        f,
		zw:       zw,
		bw:       bufio.NewWriterSize(zw, 1<<20),
		manifest: m,
	}, nil
}

// WriteScan appends one scan.
func (w *Writer) WriteScan(ctx context.Context, buf *core.ScanBuffers, offsetDays float64) error {
	if w.done {
		return ErrFinalized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFrame(w.bw, buf, offsetDays); err != nil {
		return fmt.Errorf("write scan %d: %w", buf.Scan, err)
	}
	w.scans++
	return nil
}

// Scans returns the number of scans written so far.
func (w *Writer) Scans() int { return w.scans }

// Finalize flushes the data file and writes the manifest. It is safe to
// call more than once.
func (w *Writer) Finalize() error {
	if w.done {
		return nil
	}
	w.done = true

	err := w.bw.Flush()
	if cerr := w.zw.Close(); err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close %s: %w", DataName, err)
	}

	w.manifest.ScansWritten = w.scans
	return writeManifest(w.dir, w.manifest)
}

// Reader iterates over the frames of a converted run.
type Reader struct {
	f  *os.File
	zr *zstd.Decoder
	br *bufio.Reader
	// layout is nil when the run has no manifest yet.
	layout *core.Layout
}

// OpenFrames opens <dir>/vis.zst for reading. When the manifest is present
// every frame must match its layout.
func OpenFrames(dir string) (*Reader, error) {
	f, err := os.Open(filepath.Join(dir, DataName))
	if err != nil {
		return nil, err
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	r := &Reader{f: f, zr: zr, br: bufio.NewReader(zr)}
	if m, err := ReadManifest(dir); err == nil {
		l := m.Layout()
		r.layout = &l
	}
	return r, nil
}

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (*Frame, error) {
	fr, err := readFrame(r.br, r.layout)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return fr, err
}

// Close releases the reader.
func (r *Reader) Close() error {
	r.zr.Close()
	return r.f.Close()
}
