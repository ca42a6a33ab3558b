package engine

import (
	"fmt"
	"net"
	"time"

	"goscan/internal/platform"
)

// fakeMultiplexer is an in-memory readiness backend driven by a
// test-supplied script, so engine tests never touch a real socket.
type fakeMultiplexer struct {
	registered map[int]bool
	respond    func(registered []int) []platform.Event
	waits      int
}

func newFakeMultiplexer() *fakeMultiplexer {
	return &fakeMultiplexer{registered: make(map[int]bool)}
}

func (m *fakeMultiplexer) Register(handle int) error   { m.registered[handle] = true; return nil }
func (m *fakeMultiplexer) Unregister(handle int) error  { delete(m.registered, handle); return nil }
func (m *fakeMultiplexer) Close() error                 { return nil }
func (m *fakeMultiplexer) Wait(time.Duration) ([]platform.Event, error) {
	m.waits++
	if m.respond == nil {
		return nil, nil
	}
	handles := make([]int, 0, len(m.registered))
	for h := range m.registered {
		handles = append(handles, h)
	}
	return m.respond(handles), nil
}

// fakeDialer scripts connect outcomes by destination key ("ip:port"),
// split into an immediate-connect result and a result surfaced later via
// SocketError once the handle is registered and an event fires.
type fakeDialer struct {
	nextHandle int
	immediate  map[string]platform.ConnectResult // default ConnectInProgress
	deferred   map[string]platform.ConnectResult // default ConnectOpen
	handleKey  map[int]string
	opens      int
	openErr    error
	closes     int
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		immediate: make(map[string]platform.ConnectResult),
		deferred:  make(map[string]platform.ConnectResult),
		handleKey: make(map[int]string),
	}
}

func key(ip net.IP, port int) string {
	return fmt.Sprintf("%s:%d", ip.String(), port)
}

func (d *fakeDialer) Open() (int, error) {
	if d.openErr != nil {
		return -1, d.openErr
	}
	d.opens++
	d.nextHandle++
	return d.nextHandle, nil
}

func (d *fakeDialer) Connect(handle int, ip net.IP, port int) platform.ConnectResult {
	k := key(ip, port)
	d.handleKey[handle] = k
	if res, ok := d.immediate[k]; ok {
		return res
	}
	return platform.ConnectInProgress
}

func (d *fakeDialer) SocketError(handle int) platform.ConnectResult {
	k := d.handleKey[handle]
	if res, ok := d.deferred[k]; ok {
		return res
	}
	return platform.ConnectOpen
}

func (d *fakeDialer) Close(handle int) error {
	d.closes++
	return nil
}
