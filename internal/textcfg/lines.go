// Package textcfg reads the whitespace-separated text files that describe a
// run: the observation header, the correlator input wiring and the antenna
// locations. A '#' starts a comment that runs to the end of the line.
package textcfg

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LineError locates a parse failure.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// eachLine calls fn with the fields of every non-blank line of r.
func eachLine(r io.Reader, file string, fn func(fields []string) error) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := fn(fields); err != nil {
			return &LineError{File: file, Line: line, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return nil
}
