// Package pdw encodes pulse descriptor words (PDWs) into the fixed binary
// word layouts the UXG streaming engine consumes, and frames them into
// downloadable STRM files. Three layouts exist: the analog generator's
// 7-word format 1, the vector adapter's deprecated 6-word format 1, and the
// vector adapter's 11-word format 3. Each is a distinct pure encoder; they
// are not variants of one schema.
//
// Every field is range-checked before packing. A value that does not fit its
// bit width is a caller error and is reported, never truncated.
package pdw

import (
	"fmt"
	"math"
)

// Operation marks a PDW's position in a stream.
type Operation uint8

const (
	OpNone Operation = iota
	OpFirst
	OpLast
)

// StreamType identifies the data block type carried by a PDW file.
type StreamType uint32

const (
	// StreamAnalog is a simple PDW stream for the analog generator.
	StreamAnalog StreamType = 16
	// StreamVector is a vector-format PDW stream.
	StreamVector StreamType = 64
)

// PDW is one encodable pulse descriptor word.
type PDW interface {
	// Encode returns the little-endian binary words for this pulse.
	Encode() ([]byte, error)
	// Stream reports which stream type the layout belongs to.
	Stream() StreamType
}

// FieldOverflowError reports a pulse parameter that does not fit its
// bit field after quantization.
type FieldOverflowError struct {
	Field string
	Value any
	Bits  uint
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("pdw field %s: value %v does not fit in %d bits", e.Field, e.Value, e.Bits)
}

func overflow(field string, value any, bits uint) error {
	return &FieldOverflowError{Field: field, Value: value, Bits: bits}
}

// Field resolutions. Frequency counts are 1/1024 Hz, phase counts are
// 360/4096 degrees, start times are picoseconds.
const (
	freqCountsPerHz = 1024
	phaseSteps      = 4096

	freqBits      = 47
	phaseBits     = 12
	widthNsBits   = 32
	width2PsBits  = 37
	powerBits     = 15
	markerBits    = 12
	loLeadBits    = 8
	wfmMkrBits    = 4
	powerStepDbm  = 0.005
	powerFloorDbm = 140.0
)

func quantizeFreq(hz float64) (uint64, error) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz < 0 {
		return 0, overflow("frequency", hz, freqBits)
	}
	q := uint64(hz*freqCountsPerHz + 0.5)
	if q >= 1<<freqBits {
		return 0, overflow("frequency", hz, freqBits)
	}
	return q, nil
}

// quantizePhase normalizes into (-180, 180] and returns the 12-bit two's
// complement phase count.
func quantizePhase(deg float64) (uint32, error) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, overflow("phase", deg, phaseBits)
	}
	ph := math.Mod(deg, 360)
	if ph > 180 {
		ph -= 360
	} else if ph <= -180 {
		ph += 360
	}
	q := int32(ph*phaseSteps/360 + 0.5)
	return uint32(q) & (phaseSteps - 1), nil
}

func quantizeStartPs(sec float64) (uint64, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return 0, overflow("start time", sec, 64)
	}
	ps := sec * 1e12
	if ps >= math.MaxUint64 {
		return 0, overflow("start time", sec, 64)
	}
	return uint64(ps), nil
}

func quantizeWidthNs(sec float64) (uint64, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return 0, overflow("pulse width", sec, widthNsBits)
	}
	q := uint64(sec * 1e9)
	if q >= 1<<widthNsBits {
		return 0, overflow("pulse width", sec, widthNsBits)
	}
	return q, nil
}

// quantizeWidth2Ps returns the pulse width in half-picosecond units, the
// resolution of the format-3 width field.
func quantizeWidth2Ps(sec float64) (uint64, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return 0, overflow("pulse width", sec, width2PsBits)
	}
	q := uint64(sec * 1e12 * 2)
	if q >= 1<<width2PsBits {
		return 0, overflow("pulse width", sec, width2PsBits)
	}
	return q, nil
}

// quantizePowerDbm converts a dBm level into the 15-bit linear power count
// used by the vector formats: (dBm + 140) / 0.005.
func quantizePowerDbm(dbm float64, field string) (uint32, error) {
	if math.IsNaN(dbm) || math.IsInf(dbm, 0) {
		return 0, overflow(field, dbm, powerBits)
	}
	v := (dbm+powerFloorDbm)/powerStepDbm + 0.5
	if v < 0 {
		return 0, overflow(field, dbm, powerBits)
	}
	q := uint32(v)
	if q >= 1<<powerBits {
		return 0, overflow(field, dbm, powerBits)
	}
	return q, nil
}

func checkEnum(field string, value, max uint32, bits uint) error {
	if value > max {
		return overflow(field, value, bits)
	}
	return nil
}
