package core

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports that a data stream ran out part way through a
	// scan. It is recoverable: earlier scans are intact and the caller
	// decides whether to stop.
	ErrIncomplete = errors.New("incomplete scan")

	// ErrFrameMismatch reports that the epoch-of-date and J2000 w
	// components disagree for some antenna.
	ErrFrameMismatch = errors.New("w differs between reference frames")

	// ErrMissingStream reports that a read was required from a stream that
	// was not supplied.
	ErrMissingStream = errors.New("correlation stream not supplied")
)

// ConfigError is a fatal inconsistency between the run's configuration
// sources, detected before any scan is processed.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration mismatch in %s: %s", e.Field, e.Msg)
}

// ShortReadError describes where a stream ran out.
type ShortReadError struct {
	Stream string
	Inp1   int
	Inp2   int
	Want   int
	Got    int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("EOF on %s stream: inputs %d,%d: expected %d channels, only got %d",
		e.Stream, e.Inp1, e.Inp2, e.Want, e.Got)
}

// Unwrap lets callers match ErrIncomplete with errors.Is.
func (e *ShortReadError) Unwrap() error { return ErrIncomplete }
