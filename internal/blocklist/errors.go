package blocklist

import "errors"

var ErrBadAddress = errors.New("blocklist: invalid IPv4 address")
