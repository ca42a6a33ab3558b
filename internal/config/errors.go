package config

import "errors"

// Configuration errors are reported once and abort the process before any
// probe is issued.
var (
	ErrBadTargets = errors.New("config: invalid target specification")
	ErrBadFlag    = errors.New("config: invalid flag value")
	ErrBadProfile = errors.New("config: invalid scan profile")
)
