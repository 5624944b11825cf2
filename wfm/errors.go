package wfm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLength is returned for zero or negative waveform lengths.
	ErrInvalidLength = errors.New("waveform length must be > 0")

	// ErrLengthMismatch is returned when I and Q arrays differ in length.
	ErrLengthMismatch = errors.New("I/Q length mismatch")
)

// BelowMinimumError reports a waveform shorter than the model's minimum.
type BelowMinimumError struct {
	Length, MinLength int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("waveform length %d below minimum of %d", e.Length, e.MinLength)
}

// AboveMaximumError reports a waveform longer than the model's segment memory.
type AboveMaximumError struct {
	Length, MaxLength int
}

func (e *AboveMaximumError) Error() string {
	return fmt.Sprintf("waveform length %d exceeds maximum of %d", e.Length, e.MaxLength)
}

// GranularityError reports a length that is not a multiple of the model's
// granularity, including the number of samples past the last full block.
type GranularityError struct {
	Length, Granularity, Remainder int
}

func (e *GranularityError) Error() string {
	return fmt.Sprintf("waveform length %d must be a multiple of %d, extra samples: %d",
		e.Length, e.Granularity, e.Remainder)
}
