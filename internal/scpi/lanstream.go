package scpi

import (
	"fmt"
	"net"
	"time"
)

// LANStreamPort is the raw socket the streaming engine listens on for
// realtime PDW input.
const LANStreamPort = 5033

// LANStream is a raw connection to the instrument's streaming port. PDWs
// written here play immediately; there is no framing and no replies.
type LANStream struct {
	Timeout time.Duration

	conn net.Conn
}

// DialLANStream opens the streaming port on the given host.
func DialLANStream(host string) (*LANStream, error) {
	s := &LANStream{Timeout: 5 * time.Second}
	addr := net.JoinHostPort(host, fmt.Sprint(LANStreamPort))
	c, err := net.DialTimeout("tcp", addr, s.Timeout)
	if err != nil {
		return nil, fmt.Errorf("lan stream %s: %w", addr, err)
	}
	s.conn = c
	return s, nil
}

// SetConn injects an existing connection (tests).
func (s *LANStream) SetConn(conn net.Conn) {
	s.conn = conn
}

// Send writes encoded PDW records to the stream.
func (s *LANStream) Send(data []byte) error {
	if s.conn == nil {
		return fmt.Errorf("lan stream: not connected")
	}
	for len(data) > 0 {
		if s.Timeout > 0 {
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.Timeout))
		}
		n, err := s.conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Close shuts the stream down.
func (s *LANStream) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
