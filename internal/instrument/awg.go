package instrument

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jdekker/awgstream/profile"
	"github.com/jdekker/awgstream/wfm"
)

// AWG drives an arbitrary waveform generator channel-by-channel. The profile
// decides how samples are conditioned before download.
type AWG struct {
	T       Transport
	Profile profile.Profile
}

// NewAWG pairs a transport with a device profile.
func NewAWG(t Transport, p profile.Profile) *AWG {
	return &AWG{T: t, Profile: p}
}

// nextSegment parses the channel's segment catalog and returns the first free
// segment id. The catalog lists id/length pairs; the second-to-last field is
// the highest id in use (0 when empty).
func (a *AWG) nextSegment(ch int) (int, error) {
	resp, err := a.T.Query(fmt.Sprintf("trace%d:catalog?", ch))
	if err != nil {
		return 0, err
	}
	fields := strings.Split(strings.Trim(resp, "\""), ",")
	if len(fields) < 2 {
		return 0, fmt.Errorf("segment catalog %q: too few fields", resp)
	}
	last, err := strconv.Atoi(strings.TrimSpace(fields[len(fields)-2]))
	if err != nil {
		return 0, fmt.Errorf("segment catalog %q: %w", resp, err)
	}
	return last + 1, nil
}

func (a *AWG) defineAndLoad(ch, segment, length int, name string, data []byte) error {
	if err := a.T.Write(fmt.Sprintf("trace%d:def %d, %d", ch, segment, length)); err != nil {
		return err
	}
	if err := a.T.WriteBinaryBlock(fmt.Sprintf("trace%d:data %d, 0, ", ch, segment), data); err != nil {
		return err
	}
	if name != "" {
		if err := a.T.Write(fmt.Sprintf("trace%d:name %d, \"%s\"", ch, segment, name)); err != nil {
			return err
		}
	}
	return a.T.ErrCheck()
}

// DownloadWfm conditions a real-valued waveform and loads it into the next
// free segment of the channel. It returns the segment id.
func (a *AWG) DownloadWfm(ch int, name string, samples []float64) (int, error) {
	if err := a.T.Write("abort"); err != nil {
		return 0, err
	}
	if err := a.T.OPC(); err != nil {
		return 0, err
	}

	data, count, err := wfm.Condition(samples, a.Profile)
	if err != nil {
		return 0, err
	}
	segment, err := a.nextSegment(ch)
	if err != nil {
		return 0, err
	}
	if err := a.defineAndLoad(ch, segment, count, name, data); err != nil {
		return 0, err
	}
	return segment, nil
}

// DownloadIQWfm conditions an IQ waveform and loads it into the next free
// segment. The segment is defined with the per-channel sample count, half the
// interleaved total.
func (a *AWG) DownloadIQWfm(ch int, name string, i, q []float64) (int, error) {
	if err := a.T.Write("abort"); err != nil {
		return 0, err
	}
	if err := a.T.OPC(); err != nil {
		return 0, err
	}

	data, count, err := wfm.ConditionIQ(i, q, a.Profile)
	if err != nil {
		return 0, err
	}
	segment, err := a.nextSegment(ch)
	if err != nil {
		return 0, err
	}
	if err := a.defineAndLoad(ch, segment, count/2, name, data); err != nil {
		return 0, err
	}
	return segment, nil
}

// Play selects a segment and starts continuous playback.
func (a *AWG) Play(ch, segment int) error {
	cmds := []string{
		"abort",
		fmt.Sprintf("trace%d:select %d", ch, segment),
		"init:cont:state on",
		"init:imm",
	}
	for _, cmd := range cmds {
		if err := a.T.Write(cmd); err != nil {
			return err
		}
	}
	if err := a.T.OPC(); err != nil {
		return err
	}
	return a.T.ErrCheck()
}

// Stop halts playback.
func (a *AWG) Stop() error {
	return a.T.Write("abort")
}

// DeleteSegment removes one segment from channel memory.
func (a *AWG) DeleteSegment(ch, segment int) error {
	if err := a.T.Write(fmt.Sprintf("trace%d:delete %d", ch, segment)); err != nil {
		return err
	}
	return a.T.ErrCheck()
}

// ClearAllWfm stops playback and wipes every segment on the channel.
func (a *AWG) ClearAllWfm(ch int) error {
	if err := a.T.Write("abort"); err != nil {
		return err
	}
	if err := a.T.Write(fmt.Sprintf("trace%d:delete:all", ch)); err != nil {
		return err
	}
	return a.T.ErrCheck()
}
