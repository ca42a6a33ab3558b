package engine

import (
	"net"

	"goscan/internal/platform"
)

// Dialer is the probe engine's view of the socket pool: it owns socket
// creation, the nonblocking connect, and pending-error retrieval. The
// engine depends on this interface rather than the platform package
// directly so its main loop can be driven by a fake in tests, with no
// real network I/O.
type Dialer interface {
	Open() (handle int, err error)
	Connect(handle int, ip net.IP, port int) platform.ConnectResult
	SocketError(handle int) platform.ConnectResult
	Close(handle int) error
}

// realDialer is the production Dialer, backed by the platform shim.
type realDialer struct{}

// NewRealDialer returns the Dialer used outside of tests.
func NewRealDialer() Dialer {
	return realDialer{}
}

func (realDialer) Open() (int, error) {
	return platform.NewNonblockingSocket()
}

func (realDialer) Connect(handle int, ip net.IP, port int) platform.ConnectResult {
	return platform.Connect(handle, ip, port)
}

func (realDialer) SocketError(handle int) platform.ConnectResult {
	return platform.SocketError(handle)
}

func (realDialer) Close(handle int) error {
	return platform.CloseSocket(handle)
}
