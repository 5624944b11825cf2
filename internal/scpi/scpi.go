// Package scpi implements a raw-socket SCPI session: newline-terminated
// commands and queries plus IEEE 488.2 definite-length binary blocks, over an
// unbuffered TCP connection with per-operation deadlines.
package scpi

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/charmbracelet/log"
)

// DefaultPort is the conventional raw-socket SCPI port.
const DefaultPort = 5025

// maxLineLen bounds a single query response.
const maxLineLen = 1 << 20

// maxErrQueue bounds how many entries ErrCheck drains before giving up.
const maxErrQueue = 100

// Instrument is one SCPI session. Not safe for concurrent use; commands and
// queries must be serialized by the caller.
type Instrument struct {
	Address string
	Timeout time.Duration
	Retries uint64
	Logger  *log.Logger

	conn net.Conn
}

// InstrumentError collects the entries drained from the instrument's error
// queue.
type InstrumentError struct {
	Entries []string
}

func (e *InstrumentError) Error() string {
	return fmt.Sprintf("instrument reported %d error(s): %s",
		len(e.Entries), strings.Join(e.Entries, "; "))
}

// New prepares a session for the given host:port address. Connect must be
// called before any command.
func New(addr string) *Instrument {
	return &Instrument{
		Address: addr,
		Timeout: 5 * time.Second,
		Retries: 3,
	}
}

// Connect dials the instrument, retrying with exponential backoff.
func (i *Instrument) Connect() error {
	dial := func() error {
		c, err := net.DialTimeout("tcp", i.Address, i.Timeout)
		if err != nil {
			i.logf("dial %s failed: %v", i.Address, err)
			return err
		}
		i.conn = c
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), i.Retries)
	if err := backoff.Retry(dial, policy); err != nil {
		return fmt.Errorf("connect %s: %w", i.Address, err)
	}
	i.logf("connected to %s", i.Address)
	return nil
}

// SetConn injects an existing connection (tests, tunnels).
func (i *Instrument) SetConn(conn net.Conn) {
	i.conn = conn
}

// Close shuts the session down.
func (i *Instrument) Close() error {
	if i.conn != nil {
		return i.conn.Close()
	}
	return nil
}

func (i *Instrument) logf(format string, args ...any) {
	l := i.Logger
	if l == nil {
		l = log.Default()
	}
	l.Debugf(format, args...)
}

func (i *Instrument) applyWriteDeadline() {
	if i.conn != nil && i.Timeout > 0 {
		_ = i.conn.SetWriteDeadline(time.Now().Add(i.Timeout))
	}
}

func (i *Instrument) applyReadDeadline() {
	if i.conn != nil && i.Timeout > 0 {
		_ = i.conn.SetReadDeadline(time.Now().Add(i.Timeout))
	}
}

// writeAll writes the full buffer, handling short writes.
func (i *Instrument) writeAll(b []byte) error {
	if i.conn == nil {
		return fmt.Errorf("writeAll: not connected")
	}
	for len(b) > 0 {
		i.applyWriteDeadline()
		n, err := i.conn.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// readLine reads a single LF-terminated response from the raw socket
// byte-by-byte. Buffered reading would swallow bytes that belong to a
// following binary transfer.
func (i *Instrument) readLine() (string, error) {
	if i.conn == nil {
		return "", fmt.Errorf("readLine: not connected")
	}

	var buf [1]byte
	line := make([]byte, 0, 64)
	for len(line) < maxLineLen {
		i.applyReadDeadline()
		if _, err := i.conn.Read(buf[:]); err != nil {
			return "", err
		}
		if buf[0] == '\n' {
			return strings.TrimRight(string(line), "\r"), nil
		}
		line = append(line, buf[0])
	}
	return "", fmt.Errorf("readLine: response exceeds %d bytes", maxLineLen)
}

// Write sends one command, appending the terminator.
func (i *Instrument) Write(cmd string) error {
	i.logf("-> %s", cmd)
	return i.writeAll([]byte(cmd + "\n"))
}

// Query sends a query and returns the single-line response with the
// terminator stripped.
func (i *Instrument) Query(cmd string) (string, error) {
	if err := i.Write(cmd); err != nil {
		return "", err
	}
	resp, err := i.readLine()
	if err != nil {
		return "", fmt.Errorf("query %q: %w", cmd, err)
	}
	i.logf("<- %s", resp)
	return resp, nil
}

// WriteBinaryBlock sends a command followed by an IEEE 488.2 definite-length
// binary block: '#', the digit count of the length, the length, the payload,
// and the terminator.
func (i *Instrument) WriteBinaryBlock(cmd string, data []byte) error {
	size := strconv.Itoa(len(data))
	header := cmd + "#" + strconv.Itoa(len(size)) + size
	i.logf("-> %s<%d bytes>", cmd, len(data))

	if err := i.writeAll([]byte(header)); err != nil {
		return err
	}
	if err := i.writeAll(data); err != nil {
		return err
	}
	return i.writeAll([]byte{'\n'})
}

// ID returns the instrument's *idn? response.
func (i *Instrument) ID() (string, error) {
	return i.Query("*idn?")
}

// OPC blocks until the instrument reports all pending operations complete.
func (i *Instrument) OPC() error {
	resp, err := i.Query("*opc?")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(resp, "1") {
		return fmt.Errorf("*opc? returned %q", resp)
	}
	return nil
}

// ErrCheck drains the instrument's error queue. A clean queue responds with
// "+0" or "0,"; anything else accumulates into an InstrumentError.
func (i *Instrument) ErrCheck() error {
	var entries []string
	for n := 0; n < maxErrQueue; n++ {
		resp, err := i.Query("syst:err?")
		if err != nil {
			return err
		}
		if strings.HasPrefix(resp, "+0") || strings.HasPrefix(resp, "0,") {
			if len(entries) == 0 {
				return nil
			}
			return &InstrumentError{Entries: entries}
		}
		entries = append(entries, resp)
	}
	return &InstrumentError{Entries: entries}
}
