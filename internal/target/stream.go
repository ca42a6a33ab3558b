package target

// Stream is the lazy, restartable sequence of (ip, port) probes consumed
// by the probe engine. Traversal is port-major: for each port in the
// configured list, every host is swept before the next port begins. The
// retry FIFO is drained ahead of the forward cursor once the caller
// reports the in-flight set has dropped below its low-water mark, or
// once the forward cursor is exhausted; this prevents retry starvation
// while still spreading load across distinct destinations.
type Stream struct {
	ports []uint16
	hosts *HostIterator

	portIdx     int
	forwardDone bool

	retryQueue []Probe
	retryHead  int
}

// NewStream builds a Stream over the given ports and host iterator. It
// takes ownership of hosts and will Reset it once per port.
func NewStream(ports []uint16, hosts *HostIterator) *Stream {
	return &Stream{ports: ports, hosts: hosts}
}

// Len reports the number of forward probes the stream will ever yield,
// not counting retries (which are unknown up front). Computable without
// materialising the cross-product.
func (s *Stream) Len() uint64 {
	return uint64(len(s.ports)) * s.hosts.Len()
}

// Next returns the next probe to admit. preferRetry should be true once
// the caller's in-flight count has dropped below its low-water mark;
// Next then drains the retry queue ahead of the forward cursor. It is
// always honoured once the forward cursor is exhausted, regardless of
// the argument.
func (s *Stream) Next(preferRetry bool) (Probe, bool) {
	if s.forwardDone {
		return s.popRetry()
	}
	if preferRetry && s.hasRetries() {
		return s.popRetry()
	}

	for {
		ip, ok := s.hosts.Next()
		if ok {
			return Probe{IP: ip, Port: s.ports[s.portIdx], Attempt: 0}, true
		}
		s.hosts.Reset()
		s.portIdx++
		if s.portIdx >= len(s.ports) {
			s.forwardDone = true
			return s.popRetry()
		}
	}
}

// PushRetry re-enqueues a probe for another attempt. Retries preserve
// FIFO order among themselves.
func (s *Stream) PushRetry(p Probe) {
	s.retryQueue = append(s.retryQueue, p)
}

// Done reports whether the stream has nothing left to yield: the forward
// cursor is exhausted and the retry queue is empty.
func (s *Stream) Done() bool {
	return s.forwardDone && !s.hasRetries()
}

func (s *Stream) hasRetries() bool {
	return s.retryHead < len(s.retryQueue)
}

func (s *Stream) popRetry() (Probe, bool) {
	if !s.hasRetries() {
		return Probe{}, false
	}
	p := s.retryQueue[s.retryHead]
	s.retryHead++
	// Reclaim the backing array once fully drained so a long scan doesn't
	// hold onto every retry it ever enqueued.
	if s.retryHead == len(s.retryQueue) {
		s.retryQueue = s.retryQueue[:0]
		s.retryHead = 0
	}
	return p, true
}
