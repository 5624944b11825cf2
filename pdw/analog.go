package pdw

import (
	"encoding/binary"
	"math"

	"github.com/jdekker/awgstream/hwfloat"
)

// AnalogWords is the word count of the analog format-1 layout.
const AnalogWords = 7

const analogFormat = 1

// AnalogPDW describes one pulse for the analog generator (format 1,
// 7x32-bit words). Power rides in a biased hardware float, the chirp rate in
// the 13/4-bit mantissa/exponent register.
type AnalogPDW struct {
	Operation Operation
	Freq      float64 // carrier frequency, Hz
	Phase     float64 // carrier phase, degrees
	StartTime float64 // 50% rising edge time, seconds
	Width     float64 // 50%-to-50% pulse width, seconds
	Power     float64 // output scaling, dB
	Markers   uint16  // 12-bit marker mask

	PulseMode    uint8 // 0 CW, 1 RF off, 2 pulse enabled
	PhaseControl uint8 // 0 coherent, 1 continuous
	BandAdjust   uint8 // 0 CW switch points, 1 upper band, 2 lower band

	ChirpControl uint8   // 0 stitched ramp, 1 triangle, 2 ramp
	Code         uint16  // frequency/phase coding table index
	ChirpRate    float64 // Hz/us
	FreqMap      uint8   // 0 band map A, 6 band map B

	// ChirpRateRes overrides the chirp-rate resolution; zero selects
	// hwfloat.DefaultChirpRateRes.
	ChirpRateRes float64
}

// Stream implements PDW.
func (p AnalogPDW) Stream() StreamType { return StreamAnalog }

// Words packs the pulse into its 7-word layout.
func (p AnalogPDW) Words() ([AnalogWords]uint32, error) {
	var w [AnalogWords]uint32

	if err := checkEnum("operation", uint32(p.Operation), uint32(OpLast), 2); err != nil {
		return w, err
	}
	if err := checkEnum("markers", uint32(p.Markers), 1<<markerBits-1, markerBits); err != nil {
		return w, err
	}
	if err := checkEnum("pulse mode", uint32(p.PulseMode), 2, 2); err != nil {
		return w, err
	}
	if err := checkEnum("phase control", uint32(p.PhaseControl), 1, 1); err != nil {
		return w, err
	}
	if err := checkEnum("band adjust", uint32(p.BandAdjust), 2, 2); err != nil {
		return w, err
	}
	if err := checkEnum("chirp control", uint32(p.ChirpControl), 2, 2); err != nil {
		return w, err
	}
	if err := checkEnum("coding index", uint32(p.Code), 1<<9-1, 9); err != nil {
		return w, err
	}
	if err := checkEnum("frequency map", uint32(p.FreqMap), 7, 3); err != nil {
		return w, err
	}

	freq, err := quantizeFreq(p.Freq)
	if err != nil {
		return w, err
	}
	phase, err := quantizePhase(p.Phase)
	if err != nil {
		return w, err
	}
	start, err := quantizeStartPs(p.StartTime)
	if err != nil {
		return w, err
	}
	width, err := quantizeWidthNs(p.Width)
	if err != nil {
		return w, err
	}

	power := hwfloat.FloatingBits(math.Pow(10, p.Power/20), -26, 10, 5)
	chirp := hwfloat.ChirpRateBits(p.ChirpRate, p.ChirpRateRes)

	// Word 0: format (3 bits), operation (2 bits), low 27 bits of frequency.
	w[0] = analogFormat | uint32(p.Operation)<<3 | uint32(freq<<5)
	// Word 1: high 20 bits of frequency, phase (12 bits).
	w[1] = uint32(freq>>27) | phase<<20
	// Words 2-3: start time in picoseconds, low word first.
	w[2] = uint32(start)
	w[3] = uint32(start >> 32)
	// Word 4: pulse width in nanoseconds.
	w[4] = uint32(width)
	// Word 5: power (15), markers (12), pulse mode (2), phase control (1),
	// band adjust (2).
	w[5] = power | uint32(p.Markers)<<15 | uint32(p.PulseMode)<<27 |
		uint32(p.PhaseControl)<<29 | uint32(p.BandAdjust)<<30
	// Word 6: chirp control (3), coding index (9), chirp rate (17),
	// frequency band map (3).
	w[6] = uint32(p.ChirpControl) | uint32(p.Code)<<3 | chirp<<12 | uint32(p.FreqMap)<<29

	return w, nil
}

// Encode implements PDW.
func (p AnalogPDW) Encode() ([]byte, error) {
	words, err := p.Words()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4*AnalogWords)
	for n, word := range words {
		binary.LittleEndian.PutUint32(out[4*n:4*n+4], word)
	}
	return out, nil
}
