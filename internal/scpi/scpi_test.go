package scpi

import (
	"bufio"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// pipeSession wires an Instrument to one end of a net.Pipe and returns the
// peer end for the test to script.
func pipeSession(t *testing.T) (*Instrument, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	i := New("pipe")
	i.Timeout = 2 * time.Second
	i.SetConn(client)
	return i, server
}

func TestQuery(t *testing.T) {
	i, server := pipeSession(t)

	go func() {
		r := bufio.NewReader(server)
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		if line != "*idn?\n" {
			server.Write([]byte("unexpected\n"))
			return
		}
		server.Write([]byte("Keysight Technologies,N5193A,US00000001,A.01.10\r\n"))
	}()

	got, err := i.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	want := "Keysight Technologies,N5193A,US00000001,A.01.10"
	if got != want {
		t.Fatalf("ID = %q, want %q", got, want)
	}
}

func TestQueryTimeout(t *testing.T) {
	i, server := pipeSession(t)
	i.Timeout = 50 * time.Millisecond

	// Server swallows the query and never answers.
	go io.Copy(io.Discard, server)

	if _, err := i.Query("*idn?"); err == nil {
		t.Fatal("Query returned nil error on silent peer")
	}
}

func TestWriteBinaryBlock(t *testing.T) {
	i, server := pipeSession(t)

	payload := []byte("hello")
	want := "trace1:data mySegment, 0, #15hello\n"

	got := make([]byte, len(want))
	done := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(server, got)
		done <- err
	}()

	if err := i.WriteBinaryBlock("trace1:data mySegment, 0, ", payload); err != nil {
		t.Fatalf("WriteBinaryBlock: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != want {
		t.Fatalf("wire bytes = %q, want %q", got, want)
	}
}

func TestWriteBinaryBlockLengthDigits(t *testing.T) {
	i, server := pipeSession(t)

	payload := make([]byte, 1200)
	want := len("cmd#41200\n") + len(payload)

	got := make([]byte, want)
	done := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(server, got)
		done <- err
	}()

	if err := i.WriteBinaryBlock("cmd", payload); err != nil {
		t.Fatalf("WriteBinaryBlock: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got[:9]) != "cmd#41200" {
		t.Fatalf("block header = %q, want %q", got[:9], "cmd#41200")
	}
	if got[len(got)-1] != '\n' {
		t.Fatal("block is not newline terminated")
	}
}

func TestErrCheckClean(t *testing.T) {
	i, server := pipeSession(t)

	go func() {
		r := bufio.NewReader(server)
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		server.Write([]byte("+0,\"No error\"\n"))
	}()

	if err := i.ErrCheck(); err != nil {
		t.Fatalf("ErrCheck: %v", err)
	}
}

func TestErrCheckDrainsQueue(t *testing.T) {
	i, server := pipeSession(t)

	responses := []string{
		"-222,\"Data out of range\"\n",
		"-113,\"Undefined header\"\n",
		"+0,\"No error\"\n",
	}
	go func() {
		r := bufio.NewReader(server)
		for _, resp := range responses {
			if _, err := r.ReadString('\n'); err != nil {
				return
			}
			server.Write([]byte(resp))
		}
	}()

	err := i.ErrCheck()
	var ie *InstrumentError
	if !errors.As(err, &ie) {
		t.Fatalf("ErrCheck error = %v, want *InstrumentError", err)
	}
	if len(ie.Entries) != 2 {
		t.Fatalf("drained %d entries, want 2", len(ie.Entries))
	}
	if ie.Entries[0] != "-222,\"Data out of range\"" {
		t.Fatalf("first entry = %q", ie.Entries[0])
	}
}

func TestOPC(t *testing.T) {
	i, server := pipeSession(t)

	go func() {
		r := bufio.NewReader(server)
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		server.Write([]byte("1\n"))
	}()

	if err := i.OPC(); err != nil {
		t.Fatalf("OPC: %v", err)
	}
}

func TestNotConnected(t *testing.T) {
	i := New("nowhere")
	if err := i.Write("*rst"); err == nil {
		t.Fatal("Write on unconnected session returned nil error")
	}
	if _, err := i.Query("*idn?"); err == nil {
		t.Fatal("Query on unconnected session returned nil error")
	}
}

func TestLANStreamSend(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	s := &LANStream{Timeout: 2 * time.Second}
	s.SetConn(client)

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	got := make([]byte, len(payload))
	done := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(server, got)
		done <- err
	}()

	if err := s.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("read: %v", err)
	}
	for n := range payload {
		if got[n] != payload[n] {
			t.Fatalf("byte %d = %#x, want %#x", n, got[n], payload[n])
		}
	}
}
