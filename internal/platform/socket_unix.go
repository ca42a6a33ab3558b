//go:build linux || darwin || freebsd

package platform

import (
	"net"

	"golang.org/x/sys/unix"
)

// NewNonblockingSocket creates an IPv4 TCP socket in nonblocking mode,
// ready for a connect() that returns "in progress" immediately.
func NewNonblockingSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// ConnectResult classifies the immediate outcome of a nonblocking connect.
type ConnectResult uint8

const (
	ConnectInProgress ConnectResult = iota
	ConnectOpen
	ConnectRefused
	ConnectUnreachable
	ConnectFatal
)

// Connect issues a nonblocking connect to ip:port and classifies the
// immediate return. A successful or refused connect never registers with
// the multiplexer, per the admission-loop fast paths in the engine.
func Connect(fd int, ip net.IP, port int) ConnectResult {
	v4 := ip.To4()
	if v4 == nil {
		return ConnectFatal
	}
	var addr unix.SockaddrInet4
	addr.Port = port
	copy(addr.Addr[:], v4)

	err := unix.Connect(fd, &addr)
	if err == nil {
		return ConnectOpen
	}
	return classifyErrno(err)
}

// SocketError reads the pending SO_ERROR for fd, the authoritative source
// of truth once the socket becomes writable (preferred over trusting a
// bare writable event, which can't distinguish success from a refusal
// arriving in the same instant).
func SocketError(fd int) ConnectResult {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return ConnectFatal
	}
	if errno == 0 {
		return ConnectOpen
	}
	return classifyErrno(unix.Errno(errno))
}

func classifyErrno(err error) ConnectResult {
	switch err {
	case unix.EINPROGRESS, unix.EALREADY, unix.EWOULDBLOCK:
		return ConnectInProgress
	case unix.ECONNREFUSED:
		return ConnectRefused
	case unix.EHOSTUNREACH, unix.ENETUNREACH, unix.EHOSTDOWN, unix.ENETDOWN:
		return ConnectUnreachable
	case unix.EACCES, unix.EPERM, unix.EAFNOSUPPORT, unix.EADDRNOTAVAIL:
		return ConnectFatal
	default:
		return ConnectUnreachable
	}
}

// CloseSocket closes fd and returns the error from close(2), if any.
func CloseSocket(fd int) error {
	return unix.Close(fd)
}

// MaxSockets returns the platform's usable outbound socket ceiling,
// derived from RLIMIT_NOFILE minus a small reservation for stdio and the
// process's own housekeeping descriptors.
func MaxSockets(reserved, defaultCeiling int) int {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return defaultCeiling
	}
	max := int(rlim.Cur) - reserved
	if max <= 0 {
		return 1
	}
	if max > defaultCeiling {
		return defaultCeiling
	}
	return max
}
