//go:build linux || darwin || freebsd

package platform

import (
	"time"

	"golang.org/x/sys/unix"
)

// pollMultiplexer is the portable readiness backend: a level-triggered
// wrapper around poll(2), used as a fallback wherever a scalable backend
// like epoll is unavailable or not requested.
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

	fds := make([]unix.PollFd, len(m.handles))
	for i, h := range m.handles {
		fds[i] = unix.PollFd{Fd: int32(h), Events: unix.POLLOUT}
	}

	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}

	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	events := make([]Event, 0, n)
	for _, pfd := range fds {
		var flags EventFlag
		if pfd.Revents&unix.POLLOUT != 0 {
			flags |= Writable
		}
		if pfd.Revents&unix.POLLERR != 0 {
			flags |= Err
		}
		if pfd.Revents&unix.POLLHUP != 0 {
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
