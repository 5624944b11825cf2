// Package instrument drives signal generators over a SCPI transport: arb
// waveform downloads for AWGs and PDW file/stream control for the UXG
// family. The command vocabulary is the instruments'; the payloads come from
// the wfm and pdw packages.
package instrument

import "github.com/jdekker/awgstream/internal/scpi"

// Transport is the SCPI session surface the drivers need. *scpi.Instrument
// implements it; tests substitute a recorder.
type Transport interface {
	Write(cmd string) error
	Query(cmd string) (string, error)
	WriteBinaryBlock(cmd string, data []byte) error
	OPC() error
	ErrCheck() error
}

var _ Transport = (*scpi.Instrument)(nil)
