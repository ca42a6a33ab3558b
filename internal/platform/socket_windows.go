//go:build windows

package platform

import (
	"net"

	"golang.org/x/sys/windows"
)

// NewNonblockingSocket creates an IPv4 TCP socket in nonblocking mode via
// the Winsock API.
func NewNonblockingSocket() (int, error) {
	h, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	var mode uint32 = 1 // FIONBIO: enable nonblocking mode
	if err := windows.IoctlSocket(h, windows.FIONBIO, &mode); err != nil {
		windows.Closesocket(h)
		return -1, err
	}
	return int(h), nil
}

type ConnectResult uint8

const (
	ConnectInProgress ConnectResult = iota
	ConnectOpen
	ConnectRefused
	ConnectUnreachable
	ConnectFatal
)

func Connect(fd int, ip net.IP, port int) ConnectResult {
	v4 := ip.To4()
	if v4 == nil {
		return ConnectFatal
	}
	var addr windows.SockaddrInet4
	addr.Port = port
	copy(addr.Addr[:], v4)

	err := windows.Connect(windows.Handle(fd), &addr)
	if err == nil {
		return ConnectOpen
	}
	return classifyErrno(err)
}

func SocketError(fd int) ConnectResult {
	errno, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_ERROR)
	if err != nil {
		return ConnectFatal
	}
	if errno == 0 {
		return ConnectOpen
	}
	return classifyErrno(windows.Errno(errno))
}

func classifyErrno(err error) ConnectResult {
	switch err {
	case windows.WSAEWOULDBLOCK, windows.WSAEALREADY, windows.WSAEINPROGRESS:
		return ConnectInProgress
	case windows.WSAECONNREFUSED:
		return ConnectRefused
	case windows.WSAEHOSTUNREACH, windows.WSAENETUNREACH, windows.WSAEHOSTDOWN, windows.WSAENETDOWN:
		return ConnectUnreachable
	case windows.WSAEACCES, windows.WSAEAFNOSUPPORT, windows.WSAEADDRNOTAVAIL:
		return ConnectFatal
	default:
		return ConnectUnreachable
	}
}

func CloseSocket(fd int) error {
	return windows.Closesocket(windows.Handle(fd))
}

// MaxSockets returns the operator-visible default ceiling; Windows exposes
// no rlimit-equivalent query, so the cap is a conservative constant
// reflecting the shared-per-process Winsock descriptor table.
func MaxSockets(_, defaultCeiling int) int {
	return defaultCeiling
}
