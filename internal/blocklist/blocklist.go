// Package blocklist rejects probes whose destination matches a configured
// deny set of exact IPv4 addresses. Some platforms raise fatal errors when
// connecting to network/broadcast addresses; blocklisting lets the operator
// route around them without the engine ever touching the network.
package blocklist

import (
	"fmt"
	"net"
)

// Blocklist holds an explicit set of blocked IPv4 addresses (not CIDRs).
type Blocklist struct {
	blocked map[[4]byte]struct{}
}

// New builds a Blocklist from a list of dotted-quad strings. It returns an
// error naming the first malformed entry.
func New(raw []string) (*Blocklist, error) {
	b := &Blocklist{blocked: make(map[[4]byte]struct{}, len(raw))}
	for _, s := range raw {
		ip := net.ParseIP(s)
		v4 := ip.To4()
		if v4 == nil {
			return nil, fmt.Errorf("%w: %q", ErrBadAddress, s)
		}
		var key [4]byte
		copy(key[:], v4)
		b.blocked[key] = struct{}{}
	}
	return b, nil
}

// IsBlocked reports whether ip is in the deny set, in O(1) expected time.
func (b *Blocklist) IsBlocked(ip net.IP) bool {
	if b == nil {
		return false
	}
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	var key [4]byte
	copy(key[:], v4)
	_, blocked := b.blocked[key]
	return blocked
}

// Len reports the number of distinct blocked addresses.
func (b *Blocklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.blocked)
}
