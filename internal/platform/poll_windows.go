//go:build windows

package platform

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

// pollMultiplexer on Windows is built on WSAPoll, the Winsock analogue of
// poll(2). There is no epoll-equivalent scalable backend on this platform,
// so BackendAuto always resolves to this implementation.
type pollMultiplexer struct {
	handles []int
}

func newPoll() *pollMultiplexer {
	return &pollMultiplexer{}
}

func (m *pollMultiplexer) Register(handle int) error {
	for _, h := range m.handles {
		if h == handle {
			return nil
		}
	}
	m.handles = append(m.handles, handle)
	return nil
}

func (m *pollMultiplexer) Unregister(handle int) error {
	for i, h := range m.handles {
		if h == handle {
			m.handles = append(m.handles[:i], m.handles[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *pollMultiplexer) Wait(timeout time.Duration) ([]Event, error) {
	if len(m.handles) == 0 {
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return nil, nil
	}

	fds := make([]windows.WSAPollFd, len(m.handles))
	for i, h := range m.handles {
		fds[i] = windows.WSAPollFd{Fd: windows.Handle(h), Events: windows.POLLOUT}
	}

	ms := int32(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}

	n, err := windows.WSAPoll(fds, ms)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	events := make([]Event, 0, n)
	for _, pfd := range fds {
		var flags EventFlag
		if pfd.REvents&windows.POLLOUT != 0 {
			flags |= Writable
		}
		if pfd.REvents&windows.POLLERR != 0 {
			flags |= Err
		}
		if pfd.REvents&windows.POLLHUP != 0 {
			flags |= Hup
		}
		if flags != 0 {
			events = append(events, Event{Handle: int(pfd.Fd), Flags: flags})
		}
	}
	return events, nil
}

func (m *pollMultiplexer) Close() error {
	return nil
}

// New constructs the readiness backend selected by -t. Poll is the only
// backend Windows offers; BackendEpoll is rejected the same way the BSD
// build rejects it, rather than silently falling back to poll.
func New(backend Backend) (Multiplexer, error) {
	switch backend {
	case BackendPoll, BackendAuto, "":
		return newPoll(), nil
	case BackendEpoll:
		return nil, ErrBackendUnavailable
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, backend)
	}
}
