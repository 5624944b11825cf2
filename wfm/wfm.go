// Package wfm conditions normalized waveform samples into the binary form a
// signal generator accepts: repetition up to the model's granularity,
// fixed-point scaling, IQ interleaving, and byte serialization. All functions
// are pure; device constraints come in through a profile.Profile value.
package wfm

import (
	"encoding/binary"
	"fmt"

	"github.com/jdekker/awgstream/profile"
)

// RequiredRepeats computes how many times a waveform must be repeated so that
// its total length is a multiple of gran and at least minLen. The search is
// iterative on purpose: the hardware wraps playback around the full pattern,
// so only whole repetitions of the original waveform are allowed, never
// arbitrary padding. A waveform that already satisfies both constraints
// returns 1.
func RequiredRepeats(length, gran, minLen int) (int, error) {
	if length <= 0 {
		return 0, ErrInvalidLength
	}
	if gran <= 0 {
		return 0, &GranularityError{Length: length, Granularity: gran}
	}

	repeats := 1
	total := length
	for total%gran != 0 || total < minLen {
		total += length
		repeats++
	}
	return repeats, nil
}

// Validate checks a final sample count against the profile's length
// constraints.
func Validate(totalLength int, p profile.Profile) error {
	if totalLength <= 0 {
		return ErrInvalidLength
	}
	if totalLength < int(p.MinLength) {
		return &BelowMinimumError{Length: totalLength, MinLength: int(p.MinLength)}
	}
	if p.MaxLength != 0 && totalLength > int(p.MaxLength) {
		return &AboveMaximumError{Length: totalLength, MaxLength: int(p.MaxLength)}
	}
	if rem := totalLength % int(p.Granularity); rem != 0 {
		return &GranularityError{Length: totalLength, Granularity: int(p.Granularity), Remainder: rem}
	}
	return nil
}

// ScaleSamples maps normalized samples into the profile's signed integer
// format: multiply by ScaleMultiplier, truncate toward zero, then shift left
// by BitShift within the sample width. Truncation (not rounding) is the
// documented conversion; it matches the shipping firmware tooling. Samples
// outside [-1, 1] are a caller defect and wrap silently, per the hardware
// contract.
func ScaleSamples(samples []float64, p profile.Profile) ([]int16, error) {
	if p.SampleWidth != 8 && p.SampleWidth != 16 {
		return nil, fmt.Errorf("unsupported sample width %d", p.SampleWidth)
	}

	out := make([]int16, len(samples))
	mult := float64(p.ScaleMultiplier)
	for n, s := range samples {
		v := int64(s * mult)
		if p.SampleWidth == 8 {
			out[n] = int16(int8(v) << p.BitShift)
		} else {
			out[n] = int16(v) << p.BitShift
		}
	}
	return out, nil
}

// Repeat tiles the waveform the given number of times.
func Repeat(samples []float64, repeats int) []float64 {
	out := make([]float64, 0, len(samples)*repeats)
	for r := 0; r < repeats; r++ {
		out = append(out, samples...)
	}
	return out
}

// Interleave merges I and Q sample streams into [i0 q0 i1 q1 ...]. The
// logical order is byte-order independent; endianness is applied later by
// EncodeSamples.
func Interleave(i, q []int16) ([]int16, error) {
	if len(i) != len(q) {
		return nil, ErrLengthMismatch
	}
	out := make([]int16, 2*len(i))
	for n := range i {
		out[2*n] = i[n]
		out[2*n+1] = q[n]
	}
	return out, nil
}

// EncodeSamples serializes scaled samples into the profile's wire format:
// one byte per sample for 8-bit models, two bytes in the profile's byte
// order for 16-bit models.
func EncodeSamples(samples []int16, p profile.Profile) []byte {
	if p.SampleWidth == 8 {
		out := make([]byte, len(samples))
		for n, s := range samples {
			out[n] = byte(int8(s))
		}
		return out
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if p.BigEndian {
		order = binary.BigEndian
	}
	out := make([]byte, 2*len(samples))
	for n, s := range samples {
		order.PutUint16(out[2*n:2*n+2], uint16(s))
	}
	return out
}

// Condition runs the full pipeline for a real-valued waveform: repeat to
// granularity, validate, scale, serialize. It returns the wire payload and
// the final sample count.
func Condition(samples []float64, p profile.Profile) ([]byte, int, error) {
	repeats, err := RequiredRepeats(len(samples), int(p.Granularity), int(p.MinLength))
	if err != nil {
		return nil, 0, err
	}
	tiled := Repeat(samples, repeats)
	if err := Validate(len(tiled), p); err != nil {
		return nil, 0, err
	}
	scaled, err := ScaleSamples(tiled, p)
	if err != nil {
		return nil, 0, err
	}
	return EncodeSamples(scaled, p), len(scaled), nil
}

// ConditionIQ runs the full pipeline for an IQ waveform. Both channels are
// repeated and scaled independently, then interleaved and serialized. The
// returned count is the total number of interleaved samples (2x the per
// channel length).
func ConditionIQ(i, q []float64, p profile.Profile) ([]byte, int, error) {
	if len(i) != len(q) {
		return nil, 0, ErrLengthMismatch
	}
	repeats, err := RequiredRepeats(len(i), int(p.Granularity), int(p.MinLength))
	if err != nil {
		return nil, 0, err
	}

	ti, tq := Repeat(i, repeats), Repeat(q, repeats)
	if err := Validate(len(ti), p); err != nil {
		return nil, 0, err
	}

	si, err := ScaleSamples(ti, p)
	if err != nil {
		return nil, 0, err
	}
	sq, err := ScaleSamples(tq, p)
	if err != nil {
		return nil, 0, err
	}

	iq, err := Interleave(si, sq)
	if err != nil {
		return nil, 0, err
	}
	return EncodeSamples(iq, p), len(iq), nil
}
