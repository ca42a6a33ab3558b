package target

import "net"

// Probe is one attempt to connect to one (IP, port). Two probes are
// equivalent when (IP, Port) match, regardless of Attempt.
type Probe struct {
	IP      uint32
	Port    uint16
	Attempt uint8
}

// Addr renders the probe's destination as a net.IP for use by the
// platform shim and reporting.
func (p Probe) Addr() net.IP {
	return uint32ToIP4(p.IP)
}

// Key identifies the (ip, port) pair independent of attempt, for sink
// dedup and progress bookkeeping.
type Key struct {
	IP   uint32
	Port uint16
}

func (p Probe) Key() Key {
	return Key{IP: p.IP, Port: p.Port}
}
