package target

import "errors"

var (
	ErrBadHostExpr = errors.New("target: invalid host expression")
	ErrBadPortSpec = errors.New("target: invalid port specification")
)
