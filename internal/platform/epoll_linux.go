//go:build linux

package platform

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollMultiplexer is the scalable readiness backend on Linux, preferred
// by BackendAuto whenever the kernel supports epoll.
type epollMultiplexer struct {
	epfd int
}

func newEpollOrErr() (Multiplexer, error) {
	return newEpoll()
}

func newEpoll() (*epollMultiplexer, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollMultiplexer{epfd: fd}, nil
}

func (m *epollMultiplexer) Register(handle int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLOUT | unix.EPOLLERR | unix.EPOLLHUP,
		Fd:     int32(handle),
	}
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, handle, &ev)
}

func (m *epollMultiplexer) Unregister(handle int) error {
	// Linux >= 2.6.9 accepts a nil event pointer for EPOLL_CTL_DEL.
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, handle, nil)
}

func (m *epollMultiplexer) Wait(timeout time.Duration) ([]Event, error) {
	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}
	raw := make([]unix.EpollEvent, 256)
	n, err := unix.EpollWait(m.epfd, raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		var flags EventFlag
		if raw[i].Events&unix.EPOLLOUT != 0 {
			flags |= Writable
		}
		if raw[i].Events&unix.EPOLLERR != 0 {
			flags |= Err
		}
		if raw[i].Events&unix.EPOLLHUP != 0 {
			flags |= Hup
		}
		events = append(events, Event{Handle: int(raw[i].Fd), Flags: flags})
	}
	return events, nil
}

func (m *epollMultiplexer) Close() error {
	return unix.Close(m.epfd)
}
