package platform

import "errors"

var (
	ErrUnknownBackend     = errors.New("platform: unknown poll type")
	ErrBackendUnavailable = errors.New("platform: readiness backend not available on this platform")
)
