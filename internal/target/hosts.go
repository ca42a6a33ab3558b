package target

import "fmt"

// HostIterator is a restartable, lazy iterator over the union of one or
// more IPv4 ranges. It never materialises the underlying addresses as a
// slice; Reset rewinds the cursor to the beginning in O(1).
type HostIterator struct {
	ranges []ipRange

	rangeIdx int
	offset   uint64 // offset within ranges[rangeIdx], 0-based
}

// NewHostIterator parses exprs (each one IP, CIDR, or range) into a
// HostIterator.
func NewHostIterator(exprs []string) (*HostIterator, error) {
	h := &HostIterator{}
	for _, e := range exprs {
		r, err := parseHostExpr(e)
		if err != nil {
			return nil, err
		}
		h.ranges = append(h.ranges, r)
	}
	if len(h.ranges) == 0 {
		return nil, fmt.Errorf("%w: no host ranges to scan", ErrBadHostExpr)
	}
	return h, nil
}

// Len reports the total number of distinct addresses across all ranges.
func (h *HostIterator) Len() uint64 {
	var n uint64
	for _, r := range h.ranges {
		n += r.size()
	}
	return n
}

// Next yields the next address, or (0, false) once the iterator is
// exhausted. Call Reset to traverse again (used once per port, for the
// port-major sweep in Stream).
func (h *HostIterator) Next() (uint32, bool) {
	for h.rangeIdx < len(h.ranges) {
		r := h.ranges[h.rangeIdx]
		if h.offset < r.size() {
			addr := r.start + uint32(h.offset)
			h.offset++
			return addr, true
		}
		h.rangeIdx++
		h.offset = 0
	}
	return 0, false
}

// Reset rewinds the cursor to the first address of the first range.
func (h *HostIterator) Reset() {
	h.rangeIdx = 0
	h.offset = 0
}
