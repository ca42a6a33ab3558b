//go:build linux || darwin || freebsd

package platform

import "fmt"

// New constructs the readiness backend selected by -t. BackendAuto prefers
// epoll where the build supports it and falls back to poll otherwise.
func New(backend Backend) (Multiplexer, error) {
	switch backend {
	case BackendPoll:
		return newPoll(), nil
	case BackendEpoll:
		return newEpollOrErr()
	case BackendAuto, "":
		if m, err := newEpollOrErr(); err == nil {
			return m, nil
		}
		return newPoll(), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, backend)
	}
}
