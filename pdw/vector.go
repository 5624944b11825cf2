package pdw

import "encoding/binary"

const vectorLegacyFormat = 1

// VectorLegacyWords is the word count of the deprecated vector format-1
// layout.
const VectorLegacyWords = 6

// VectorLegacyPDW describes one pulse in the vector adapter's format 1.
// The format is deprecated on current firmware; prefer VectorPDW.
type VectorLegacyPDW struct {
	Operation Operation
	Freq      float64 // Hz
	Phase     float64 // degrees
	StartTime float64 // seconds
	Power     float64 // dBm
	Markers   uint16  // 12-bit marker mask

	PhaseControl uint8 // 0 coherent, 1 continuous
	RFOff        uint8 // 1 blanks the RF output for this pulse

	WIndex     uint16 // waveform index file entry
	WfmMkrMask uint8  // 4-bit waveform marker mask
}

// Stream implements PDW.
func (p VectorLegacyPDW) Stream() StreamType { return StreamVector }

// Words packs the pulse into its 6-word layout.
func (p VectorLegacyPDW) Words() ([VectorLegacyWords]uint32, error) {
	var w [VectorLegacyWords]uint32

	if err := checkEnum("operation", uint32(p.Operation), uint32(OpLast), 2); err != nil {
		return w, err
	}
	if err := checkEnum("markers", uint32(p.Markers), 1<<markerBits-1, markerBits); err != nil {
		return w, err
	}
	if err := checkEnum("phase control", uint32(p.PhaseControl), 1, 1); err != nil {
		return w, err
	}
	if err := checkEnum("rf off", uint32(p.RFOff), 1, 1); err != nil {
		return w, err
	}
	if err := checkEnum("waveform marker mask", uint32(p.WfmMkrMask), 1<<wfmMkrBits-1, wfmMkrBits); err != nil {
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
	power, err := quantizePowerDbm(p.Power, "power")
	if err != nil {
		return w, err
	}

	w[0] = vectorLegacyFormat | uint32(p.Operation)<<3 | uint32(freq<<5)
	w[1] = uint32(freq>>27) | phase<<20
	w[2] = uint32(start)
	w[3] = uint32(start >> 32)
	// Word 4: power (15), markers (12), phase control (1), rf off (1).
	w[4] = power | uint32(p.Markers)<<15 | uint32(p.PhaseControl)<<27 | uint32(p.RFOff)<<28
	// Word 5: waveform index (16), 12 reserved bits, waveform marker mask (4).
	w[5] = uint32(p.WIndex) | uint32(p.WfmMkrMask)<<28

	return w, nil
}

// Encode implements PDW.
func (p VectorLegacyPDW) Encode() ([]byte, error) {
	words, err := p.Words()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4*VectorLegacyWords)
	for n, word := range words {
		binary.LittleEndian.PutUint32(out[4*n:4*n+4], word)
	}
	return out, nil
}

const vectorFormat = 3

// VectorWords is the word count of the vector format-3 layout.
const VectorWords = 11

// VectorPDW describes one pulse in the vector adapter's current format 3
// (11x32-bit words). The pulse width field has half-picosecond resolution
// and spans a word boundary (low 32 bits in word 4, high 5 bits in word 5).
type VectorPDW struct {
	Operation Operation
	Freq      float64 // Hz
	Phase     float64 // degrees
	StartTime float64 // seconds
	Width     float64 // seconds
	MaxPower  float64 // maximum output power, dBm
	Power     float64 // per-pulse power, dBm
	Markers   uint16  // 12-bit marker mask

	PhaseControl uint8   // 0 coherent, 1 continuous
	RFOff        uint8   // 1 blanks the RF output for this pulse
	AutoBlank    uint8   // 1 enables auto blanking
	ZeroHold     uint8   // 0 zero, 1 hold last value
	LOLead       float64 // LO switch lead time before the start time, seconds

	WfmType    uint8  // 2-bit waveform type, 0 for IQ arb segments
	WIndex     uint16 // waveform index file entry
	WfmMkrMask uint8  // 4-bit waveform marker mask
}

// Stream implements PDW.
func (p VectorPDW) Stream() StreamType { return StreamVector }

// Words packs the pulse into its 11-word layout. Words 8-10 are reserved
// and always zero.
func (p VectorPDW) Words() ([VectorWords]uint32, error) {
	var w [VectorWords]uint32

	if err := checkEnum("operation", uint32(p.Operation), uint32(OpLast), 2); err != nil {
		return w, err
	}
	if err := checkEnum("markers", uint32(p.Markers), 1<<markerBits-1, markerBits); err != nil {
		return w, err
	}
	if err := checkEnum("phase control", uint32(p.PhaseControl), 1, 1); err != nil {
		return w, err
	}
	if err := checkEnum("rf off", uint32(p.RFOff), 1, 1); err != nil {
		return w, err
	}
	if err := checkEnum("auto blank", uint32(p.AutoBlank), 1, 1); err != nil {
		return w, err
	}
	if err := checkEnum("zero/hold", uint32(p.ZeroHold), 1, 1); err != nil {
		return w, err
	}
	if err := checkEnum("waveform type", uint32(p.WfmType), 3, 2); err != nil {
		return w, err
	}
	if err := checkEnum("waveform marker mask", uint32(p.WfmMkrMask), 1<<wfmMkrBits-1, wfmMkrBits); err != nil {
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
	width, err := quantizeWidth2Ps(p.Width)
	if err != nil {
		return w, err
	}
	maxPower, err := quantizePowerDbm(p.MaxPower, "max power")
	if err != nil {
		return w, err
	}
	power, err := quantizePowerDbm(p.Power, "power")
	if err != nil {
		return w, err
	}

	// LO lead is stored in 4 ns steps.
	if p.LOLead < 0 {
		return w, overflow("lo lead", p.LOLead, loLeadBits)
	}
	loLead := uint64(p.LOLead / 4e-9)
	if loLead >= 1<<loLeadBits {
		return w, overflow("lo lead", p.LOLead, loLeadBits)
	}

	// The streaming engine requires the new-waveform flag on every PDW
	// produced by a file download.
	const newWfm = 1

	w[0] = vectorFormat | uint32(p.Operation)<<3 | uint32(freq<<5)
	w[1] = uint32(freq>>27) | phase<<20
	w[2] = uint32(start)
	w[3] = uint32(start >> 32)
	// Words 4-5: pulse width split 32/5 across the boundary.
	w[4] = uint32(width)
	w[5] = uint32(width>>32)&0x1F | maxPower<<5 | uint32(p.Markers)<<20
	// Word 6: power (15), phase mode (1), rf off (1), auto blank (1),
	// new wfm (1), zero/hold (1), lo lead (8), waveform marker mask (4).
	w[6] = power | uint32(p.PhaseControl)<<15 | uint32(p.RFOff)<<16 |
		uint32(p.AutoBlank)<<17 | newWfm<<18 | uint32(p.ZeroHold)<<19 |
		uint32(loLead)<<20 | uint32(p.WfmMkrMask)<<28
	// Word 7: 8 reserved bits, waveform type (2), waveform index (16).
	w[7] = uint32(p.WfmType)<<8 | uint32(p.WIndex)<<10

	return w, nil
}

// Encode implements PDW.
func (p VectorPDW) Encode() ([]byte, error) {
	words, err := p.Words()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4*VectorWords)
	for n, word := range words {
		binary.LittleEndian.PutUint32(out[4*n:4*n+4], word)
	}
	return out, nil
}
