package discovery

import (
	"net"
	"testing"
)

func TestCleanInstance(t *testing.T) {
	got := cleanInstance(`Keysight\ N5193A\ -\ US00000001`)
	want := "Keysight N5193A - US00000001"
	if got != want {
		t.Fatalf("cleanInstance = %q, want %q", got, want)
	}
}

func TestHostAddr(t *testing.T) {
	h := Host{
		Hostname:  "a-n5193a-00001.local.",
		Addresses: []net.IP{net.IPv4(192, 168, 1, 20)},
		Port:      5025,
	}
	if got := h.Addr(); got != "192.168.1.20:5025" {
		t.Fatalf("Addr = %q", got)
	}

	h.Addresses = nil
	if got := h.Addr(); got != "a-n5193a-00001.local:5025" {
		t.Fatalf("Addr without IPs = %q", got)
	}
}
