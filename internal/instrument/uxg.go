package instrument

import (
	"fmt"

	"github.com/jdekker/awgstream/internal/scpi"
	"github.com/jdekker/awgstream/pdw"
	"github.com/jdekker/awgstream/profile"
	"github.com/jdekker/awgstream/wfm"
)

// AnalogUXG drives the N5193A agile signal generator's streaming engine.
type AnalogUXG struct {
	T Transport
}

// NewAnalogUXG pairs a transport with the analog streaming driver.
func NewAnalogUXG(t Transport) *AnalogUXG {
	return &AnalogUXG{T: t}
}

// DownloadPDWFile loads a built PDW file image into the instrument's PDW
// directory under the given name.
func (u *AnalogUXG) DownloadPDWFile(name string, file []byte) error {
	cmd := fmt.Sprintf("memory:data \"/USER/PDW/%s\",", name)
	if err := u.T.WriteBinaryBlock(cmd, file); err != nil {
		return err
	}
	return u.T.ErrCheck()
}

// StreamPlay selects a PDW file as the stream source, enables modulation and
// streaming, and triggers playback.
func (u *AnalogUXG) StreamPlay(pdwID string) error {
	if err := u.T.Write("stream:source file"); err != nil {
		return err
	}
	if err := u.T.Write(fmt.Sprintf("stream:source:file:name \"%s\"", pdwID)); err != nil {
		return err
	}
	if err := u.T.ErrCheck(); err != nil {
		return err
	}

	cmds := []string{
		"output:modulation on",
		"source:stream:state on",
		"stream:trigger:play",
	}
	for _, cmd := range cmds {
		if err := u.T.Write(cmd); err != nil {
			return err
		}
	}
	return u.T.ErrCheck()
}

// StreamStop deactivates RF output, modulation, and streaming.
func (u *AnalogUXG) StreamStop() error {
	cmds := []string{
		"output off",
		"output:modulation off",
		"stream:state off",
	}
	for _, cmd := range cmds {
		if err := u.T.Write(cmd); err != nil {
			return err
		}
	}
	return u.T.ErrCheck()
}

// VectorUXG drives the N5194A vector adapter: IQ waveform memory, waveform
// index files, and PDW streaming.
type VectorUXG struct {
	T       Transport
	Profile profile.Profile
}

// NewVectorUXG pairs a transport with the vector adapter's device profile.
func NewVectorUXG(t Transport, p profile.Profile) *VectorUXG {
	return &VectorUXG{T: t, Profile: p}
}

// DownloadWfm conditions an IQ waveform and loads it into waveform memory
// under the given id. The arb must be off during the transfer.
func (u *VectorUXG) DownloadWfm(id string, i, q []float64) error {
	data, _, err := wfm.ConditionIQ(i, q, u.Profile)
	if err != nil {
		return err
	}
	if err := u.T.Write("radio:arb:state off"); err != nil {
		return err
	}
	cmd := fmt.Sprintf("memory:data \"WFM1:%s\", ", id)
	if err := u.T.WriteBinaryBlock(cmd, data); err != nil {
		return err
	}
	return u.T.ErrCheck()
}

// DownloadPDWFile loads a built PDW file image into the instrument's PDW
// directory under the given name.
func (u *VectorUXG) DownloadPDWFile(name string, file []byte) error {
	cmd := fmt.Sprintf("memory:data \"/USER/PDW/%s\",", name)
	if err := u.T.WriteBinaryBlock(cmd, file); err != nil {
		return err
	}
	return u.T.ErrCheck()
}

// DownloadWindexCSV builds a waveform index CSV naming previously downloaded
// waveforms and imports it. The import implicitly selects the resulting
// index file.
func (u *VectorUXG) DownloadWindexCSV(name string, wfmNames []string) error {
	payload := pdw.WindexCSV(wfmNames)
	cmd := fmt.Sprintf("memory:data \"%s.csv\", ", name)
	if err := u.T.WriteBinaryBlock(cmd, payload); err != nil {
		return err
	}
	if err := u.T.Write(fmt.Sprintf("memory:import:windex \"%s.csv\", \"%s\"", name, name)); err != nil {
		return err
	}
	if err := u.T.OPC(); err != nil {
		return err
	}
	return u.T.ErrCheck()
}

// DownloadPDWCSV builds a PDW definition CSV, imports it, and converts it to
// a binary PDW file on the instrument. The import implicitly selects the
// resulting PDW and index files as the stream source.
func (u *VectorUXG) DownloadPDWCSV(name string, fields []string, rows [][]string) error {
	payload, err := pdw.CSV(fields, rows)
	if err != nil {
		return err
	}
	if err := u.T.Write("stream:state off"); err != nil {
		return err
	}
	cmd := fmt.Sprintf("memory:data \"%s.csv\", ", name)
	if err := u.T.WriteBinaryBlock(cmd, payload); err != nil {
		return err
	}
	if err := u.T.Write(fmt.Sprintf("memory:import:stream \"%s.csv\", \"%s\"", name, name)); err != nil {
		return err
	}
	if err := u.T.OPC(); err != nil {
		return err
	}
	return u.T.ErrCheck()
}

// StreamPlay selects the PDW and waveform index files, enables modulation and
// streaming, and triggers playback. An empty windexID reuses the PDW file's
// name.
func (u *VectorUXG) StreamPlay(pdwID, windexID string) error {
	if windexID == "" {
		windexID = pdwID
	}
	cmds := []string{
		"stream:source file",
		fmt.Sprintf("stream:source:file:name \"%s\"", pdwID),
		fmt.Sprintf("stream:windex:select \"%s\"", windexID),
		"output:modulation on",
		"stream:state on",
		"stream:trigger:play:immediate",
	}
	for _, cmd := range cmds {
		if err := u.T.Write(cmd); err != nil {
			return err
		}
	}
	return u.T.ErrCheck()
}

// StreamStop deactivates RF output, modulation, and streaming.
func (u *VectorUXG) StreamStop() error {
	cmds := []string{
		"output off",
		"output:modulation off",
		"stream:state off",
	}
	for _, cmd := range cmds {
		if err := u.T.Write(cmd); err != nil {
			return err
		}
	}
	return u.T.ErrCheck()
}

// OpenLANStream enables streaming mode and opens the realtime PDW socket on
// the given host. The caller owns the returned stream.
func (u *VectorUXG) OpenLANStream(host string) (*scpi.LANStream, error) {
	if err := u.T.Write("stream:state on"); err != nil {
		return nil, err
	}
	if err := u.T.OPC(); err != nil {
		return nil, err
	}
	return scpi.DialLANStream(host)
}

// ClearMemory wipes every waveform, PDW, and index file from the instrument.
// Must run before downloading waveforms or changing an existing PDW file.
func (u *VectorUXG) ClearMemory() error {
	cmds := []string{
		"stream:state off",
		"radio:arb:state off",
		"memory:delete:binary",
		"mmemory:delete:wfm",
	}
	for _, cmd := range cmds {
		if err := u.T.Write(cmd); err != nil {
			return err
		}
	}
	if err := u.T.OPC(); err != nil {
		return err
	}
	return u.T.ErrCheck()
}
