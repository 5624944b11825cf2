package pdw

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// CodingType selects what a coding entry modulates within a pulse.
type CodingType uint8

const (
	CodingFrequency CodingType = iota
	CodingPhase
)

const codingVersion = 2

// maxCodingComment is the comment capacity of a coding entry in bytes.
const maxCodingComment = 60

// CodingEntry is one intra-pulse frequency or phase coding definition: a
// state mapping table, the bit pattern selecting states per subpulse, and a
// free-form comment.
type CodingEntry struct {
	Enabled         bool
	BitsPerSubpulse uint8
	Type            CodingType

	// StateMapping assigns a frequency offset or phase value to each
	// subpulse state, one float64 per state.
	StateMapping []float64

	// Pattern is the subpulse bit pattern as a hex string; it must have an
	// even number of digits.
	Pattern string

	// PatternBits declares how many bits of Pattern are significant. Zero
	// means all of them.
	PatternBits uint32

	// Comment is a human-readable label, at most 60 bytes of UTF-8.
	Comment string
}

// CodingBlock is a list of coding entries framed as one metadata block
// (block id 13) in the file preamble.
type CodingBlock struct {
	Entries []CodingEntry
}

func (c CodingBlock) encode() ([]byte, error) {
	var body bytes.Buffer
	writeU32(&body, codingVersion)
	writeU32(&body, uint32(len(c.Entries)))

	for n, e := range c.Entries {
		if err := e.appendTo(&body); err != nil {
			return nil, fmt.Errorf("entry %d: %w", n, err)
		}
	}

	// Zero-pad the whole block (header included) to the 16-byte alignment.
	pad := (blockAlign - (blockHeaderLen+body.Len())%blockAlign) % blockAlign

	var out bytes.Buffer
	writeU32(&out, blockIDCoding)
	writeU32(&out, 0)
	writeU64(&out, uint64(body.Len()+pad))
	out.Write(body.Bytes())
	writeZeros(&out, pad)
	return out.Bytes(), nil
}

func (e CodingEntry) appendTo(buf *bytes.Buffer) error {
	if len(e.Comment) > maxCodingComment {
		return fmt.Errorf("comment is %d bytes, maximum is %d", len(e.Comment), maxCodingComment)
	}
	if len(e.Pattern)%2 != 0 {
		return fmt.Errorf("bit pattern %q must have an even number of hex digits", e.Pattern)
	}
	pattern, err := hex.DecodeString(e.Pattern)
	if err != nil {
		return fmt.Errorf("bit pattern %q: %w", e.Pattern, err)
	}

	patternBits := e.PatternBits
	if patternBits == 0 {
		patternBits = uint32(8 * len(pattern))
	}
	if patternBits > uint32(8*len(pattern)) {
		return fmt.Errorf("declared pattern length %d bits exceeds the %d pattern bytes", patternBits, len(pattern))
	}

	onOff := byte(0)
	if e.Enabled {
		onOff = 1
	}
	buf.WriteByte(onOff)
	buf.WriteByte(e.BitsPerSubpulse)
	buf.WriteByte(byte(e.Type))
	buf.WriteByte(byte(len(e.Comment)))
	writeU32(buf, patternBits)

	var tmp [8]byte
	for _, state := range e.StateMapping {
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(state))
		buf.Write(tmp[:])
	}
	buf.Write(pattern)
	buf.WriteString(e.Comment)
	return nil
}
