package target

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePorts resolves a -p expression into a sorted, deduplicated list of
// ports. Supported syntax: "N", "N-M", "all", and comma-separated
// combinations of the above. "all" resolves to 1..=65535.
func ParsePorts(raw string) ([]uint16, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty port expression", ErrBadPortSpec)
	}
	if strings.EqualFold(raw, "all") {
		ports := make([]uint16, 65535)
		for i := range ports {
			ports[i] = uint16(i + 1)
		}
		return ports, nil
	}

	seen := make(map[uint16]struct{})
	var ports []uint16

	add := func(p uint16) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			ports = append(ports, p)
		}
	}

	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if dash := strings.IndexByte(field, '-'); dash >= 0 {
			lo, err := parsePort(field[:dash])
			if err != nil {
				return nil, err
			}
			hi, err := parsePort(field[dash+1:])
			if err != nil {
				return nil, err
			}
			if hi < lo {
				lo, hi = hi, lo
			}
			for p := lo; p <= hi; p++ {
				add(p)
				if p == 65535 {
					break
				}
			}
		} else {
			p, err := parsePort(field)
			if err != nil {
				return nil, err
			}
			add(p)
		}
	}

	if len(ports) == 0 {
		return nil, fmt.Errorf("%w: %q resolved to no ports", ErrBadPortSpec, raw)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: bad port %q: %v", ErrBadPortSpec, s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: port 0 is not valid", ErrBadPortSpec)
	}
	return uint16(n), nil
}
