package pdw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// File framing constants. The streaming engine requires the PDW records to
// begin on a 4096-byte boundary, and every block before them to be 16-byte
// aligned.
const (
	fileMagic   = "STRM"
	fileKeyTag  = "KEYS"
	fileVersion = 1

	sectionBoundary = 4096
	blockAlign      = 16

	fileHeaderLen  = 48
	blockHeaderLen = 16
	sentinelLen    = 24

	blockIDPadding = 1
	blockIDCoding  = 13
	blockIDPDW     = 16

	// pdwSizeUnbounded marks a PDW section of open length (streamed data).
	pdwSizeUnbounded = ^uint64(0)
)

// ErrMixedStream is returned when a PDW of one stream type is added to a
// file of another.
var ErrMixedStream = errors.New("pdw stream type does not match file stream type")

// FileBuilder assembles a downloadable PDW file: STRM header, optional
// frequency/phase coding blocks, a padding block sized so the PDW records
// start on the section boundary, the PDW section header, the records in the
// order added, and a trailing sentinel. Playback order is the insertion
// order; the builder never reorders.
type FileBuilder struct {
	stream StreamType
	coding []CodingBlock
	pdws   [][]byte
}

// NewFileBuilder starts an empty file of the given stream type.
func NewFileBuilder(stream StreamType) *FileBuilder {
	return &FileBuilder{stream: stream}
}

// AddCoding appends a frequency/phase coding block to the file preamble.
func (b *FileBuilder) AddCoding(c CodingBlock) {
	b.coding = append(b.coding, c)
}

// Add encodes one pulse and appends it to the file. Encoding errors surface
// here, before any output is produced.
func (b *FileBuilder) Add(p PDW) error {
	if p.Stream() != b.stream {
		return fmt.Errorf("%w: got %d, file is %d", ErrMixedStream, p.Stream(), b.stream)
	}
	rec, err := p.Encode()
	if err != nil {
		return err
	}
	b.pdws = append(b.pdws, rec)
	return nil
}

// Count returns the number of pulses added so far.
func (b *FileBuilder) Count() int { return len(b.pdws) }

// Build produces the complete file image.
func (b *FileBuilder) Build() ([]byte, error) {
	meta, err := b.encodeCoding()
	if err != nil {
		return nil, err
	}

	// The preamble is header + metadata + padding block + PDW section
	// header; the records begin at blockCount*4096.
	fixed := fileHeaderLen + len(meta) + 2*blockHeaderLen
	blockCount := (fixed + sectionBoundary - 1) / sectionBoundary
	offset := blockCount * sectionBoundary
	filler := offset - fixed

	var buf bytes.Buffer
	buf.Grow(offset + len(b.pdws)*4*VectorWords + sentinelLen)

	// File header.
	buf.WriteString(fileMagic)
	writeU32(&buf, fileVersion)
	writeU32(&buf, uint32(blockCount<<1)&0x3fffff)
	buf.WriteString(fileKeyTag)
	writeZeros(&buf, 16) // reserved
	writeU32(&buf, 0)    // flags
	writeU32(&buf, 0)    // unique id
	writeU32(&buf, uint32(b.stream))
	writeU32(&buf, 0) // reserved

	// Coding blocks, already padded to the block alignment.
	buf.Write(meta)

	// Padding block.
	writeU32(&buf, blockIDPadding)
	writeU32(&buf, 0)
	writeU64(&buf, uint64(filler))
	writeZeros(&buf, filler)

	// PDW section header. The size is left open: the sentinel terminates
	// the record stream.
	writeU32(&buf, blockIDPDW)
	writeU32(&buf, 0)
	writeU64(&buf, pdwSizeUnbounded)

	if buf.Len() != offset {
		return nil, fmt.Errorf("internal framing error: PDW section starts at %d, want %d", buf.Len(), offset)
	}

	for _, rec := range b.pdws {
		buf.Write(rec)
	}
	writeZeros(&buf, sentinelLen)

	return buf.Bytes(), nil
}

func (b *FileBuilder) encodeCoding() ([]byte, error) {
	var buf bytes.Buffer
	for n, c := range b.coding {
		block, err := c.encode()
		if err != nil {
			return nil, fmt.Errorf("coding block %d: %w", n, err)
		}
		buf.Write(block)
	}
	return buf.Bytes(), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeZeros(buf *bytes.Buffer, n int) {
	buf.Write(make([]byte, n))
}
