// Package platform encapsulates everything the probe engine must not
// branch on directly: the chosen readiness backend, nonblocking socket
// creation, pending-socket-error retrieval, the per-platform packet-size
// constant, and the maximum usable socket count. The engine only ever
// sees the Multiplexer interface below and the socket functions
// (NewNonblockingSocket, Connect, SocketError, CloseSocket).
package platform

import "time"

// EventFlag marks what happened to a registered socket.
type EventFlag uint8

const (
	Writable EventFlag = 1 << iota
	Err
	Hup
)

// Event reports readiness for one registered handle.
type Event struct {
	Handle int
	Flags  EventFlag
}

// Multiplexer is a level-triggered readiness primitive: a writable event
// that is not acted upon is redelivered on the next Wait call.
type Multiplexer interface {
	Register(handle int) error
	Unregister(handle int) error
	Wait(timeout time.Duration) ([]Event, error)
	Close() error
}

// Backend selects which Multiplexer implementation New constructs.
type Backend string

const (
	BackendAuto  Backend = "auto"
	BackendPoll  Backend = "poll"
	BackendEpoll Backend = "epoll"
)
