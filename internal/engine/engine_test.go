package engine

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscan/internal/blocklist"
	"goscan/internal/clock"
	"goscan/internal/platform"
	"goscan/internal/ratelimit"
	"goscan/internal/target"
)

func noopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func buildStream(t *testing.T, hostExprs []string, ports []uint16) *target.Stream {
	t.Helper()
	hosts, err := target.NewHostIterator(hostExprs)
	require.NoError(t, err)
	return target.NewStream(ports, hosts)
}

func TestEngineImmediateOpenAndRefused(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1"}, []uint16{22, 445})

	dialer := newFakeDialer()
	dialer.immediate["10.0.0.1:22"] = platform.ConnectOpen
	dialer.immediate["10.0.0.1:445"] = platform.ConnectRefused

	mux := newFakeMultiplexer()
	gov := ratelimit.New(0, 0, platform.PacketBits)
	var out bytes.Buffer
	sink := NewSink(&out, true) // show closed to assert on it

	e := New(Config{MaxSockets: 10, RTT: time.Second, Retries: 2}, stream, gov, mux, dialer, nil, clock.NewFake(), sink, noopLogger())

	require.NoError(t, e.Run())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.ElementsMatch(t, []string{"10.0.0.1 22 open", "10.0.0.1 445 closed"}, lines)
	assert.Zero(t, mux.waits, "immediate outcomes must resolve without waiting on the multiplexer")
}

func TestEngineClosedSuppressedByDefault(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1"}, []uint16{445})
	dialer := newFakeDialer()
	dialer.immediate["10.0.0.1:445"] = platform.ConnectRefused
	mux := newFakeMultiplexer()
	gov := ratelimit.New(0, 0, platform.PacketBits)
	var out bytes.Buffer
	sink := NewSink(&out, false)

	e := New(Config{MaxSockets: 10, RTT: time.Second}, stream, gov, mux, dialer, nil, clock.NewFake(), sink, noopLogger())
	require.NoError(t, e.Run())

	assert.Empty(t, strings.TrimSpace(out.String()))
}

func TestEngineBlocklistedProbeProducesNoVerdict(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1-2"}, []uint16{80})
	dialer := newFakeDialer()
	dialer.immediate["10.0.0.1:80"] = platform.ConnectOpen
	dialer.immediate["10.0.0.2:80"] = platform.ConnectOpen
	mux := newFakeMultiplexer()
	gov := ratelimit.New(0, 0, platform.PacketBits)
	block, err := blocklist.New([]string{"10.0.0.1"})
	require.NoError(t, err)
	var out bytes.Buffer
	sink := NewSink(&out, true)

	e := New(Config{MaxSockets: 10, RTT: time.Second}, stream, gov, mux, dialer, block, clock.NewFake(), sink, noopLogger())
	require.NoError(t, e.Run())

	assert.Equal(t, "10.0.0.2 80 open", strings.TrimSpace(out.String()))
}

func TestEngineDeferredOpenViaMultiplexer(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1"}, []uint16{80})
	dialer := newFakeDialer()
	// No immediate result registered -> ConnectInProgress, so the engine
	// must register the socket and resolve it via a readiness event.
	dialer.deferred["10.0.0.1:80"] = platform.ConnectOpen

	mux := newFakeMultiplexer()
	fired := false
	mux.respond = func(handles []int) []platform.Event {
		if fired || len(handles) == 0 {
			return nil
		}
		fired = true
		var events []platform.Event
		for _, h := range handles {
			events = append(events, platform.Event{Handle: h, Flags: platform.Writable})
		}
		return events
	}

	gov := ratelimit.New(0, 0, platform.PacketBits)
	var out bytes.Buffer
	sink := NewSink(&out, true)
	e := New(Config{MaxSockets: 10, RTT: time.Second}, stream, gov, mux, dialer, nil, clock.NewFake(), sink, noopLogger())

	require.NoError(t, e.Run())
	assert.Equal(t, "10.0.0.1 80 open", strings.TrimSpace(out.String()))
	assert.Equal(t, 1, dialer.opens)
	assert.Equal(t, 1, dialer.closes)
}

func TestEngineTimeoutConsumesRetryThenFilters(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1"}, []uint16{80})
	dialer := newFakeDialer() // never resolves: always ConnectInProgress, SocketError default Open is irrelevant since no event ever fires

	mux := newFakeMultiplexer() // respond is nil -> never signals readiness
	clk := clock.NewFake()
	gov := ratelimit.New(0, 0, platform.PacketBits)
	var out bytes.Buffer
	sink := NewSink(&out, true)

	e := New(Config{MaxSockets: 10, RTT: 500 * time.Millisecond, Retries: 2}, stream, gov, mux, dialer, nil, clk, sink, noopLogger())

	// Drive the loop manually so the fake clock can be advanced between
	// iterations without a real-time sleep.
	attempts := 0
	for i := 0; i < 10 && !(stream.Done() && len(e.inflight) == 0); i++ {
		e.admit()
		if len(e.inflight) > 0 {
			attempts++
		}
		clk.Advance(600 * time.Millisecond)
		e.handleTimeouts(clk.Now())
	}

	assert.Equal(t, 3, attempts, "default retries=2 means 3 total attempts")
	assert.Equal(t, "10.0.0.1 80 filtered", strings.TrimSpace(out.String()))
}

func TestEngineRetriesZeroYieldsOneAttempt(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1"}, []uint16{80})
	dialer := newFakeDialer()
	mux := newFakeMultiplexer()
	clk := clock.NewFake()
	gov := ratelimit.New(0, 0, platform.PacketBits)
	var out bytes.Buffer
	sink := NewSink(&out, true)

	e := New(Config{MaxSockets: 10, RTT: 500 * time.Millisecond, Retries: 0}, stream, gov, mux, dialer, nil, clk, sink, noopLogger())

	e.admit()
	require.Len(t, e.inflight, 1)
	clk.Advance(600 * time.Millisecond)
	e.handleTimeouts(clk.Now())

	assert.True(t, stream.Done())
	assert.Equal(t, "10.0.0.1 80 filtered", strings.TrimSpace(out.String()))
	assert.Equal(t, 1, dialer.opens)
}

func TestEngineRespectsMaxSockets(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1-10"}, []uint16{80})
	dialer := newFakeDialer() // everything stays in-flight (ConnectInProgress)
	mux := newFakeMultiplexer()
	gov := ratelimit.New(0, 0, platform.PacketBits)
	var out bytes.Buffer
	sink := NewSink(&out, true)

	e := New(Config{MaxSockets: 3, RTT: time.Second}, stream, gov, mux, dialer, nil, clock.NewFake(), sink, noopLogger())
	e.admit()

	assert.LessOrEqual(t, len(e.inflight), 3)
	assert.Len(t, e.inflight, 3)
}

func TestEngineBandwidthCapPacesAdmission(t *testing.T) {
	stream := buildStream(t, []string{"10.0.0.1-4"}, []uint16{80})
	dialer := newFakeDialer()
	dialer.immediate["10.0.0.1:80"] = platform.ConnectOpen
	dialer.immediate["10.0.0.2:80"] = platform.ConnectOpen
	dialer.immediate["10.0.0.3:80"] = platform.ConnectOpen
	dialer.immediate["10.0.0.4:80"] = platform.ConnectOpen

	mux := newFakeMultiplexer()
	clk := clock.NewFake()
	// One probe's worth of bandwidth per second: the second probe cannot
	// be admitted in the same instant as the first.
	gov := ratelimit.New(float64(platform.PacketBits), 0, platform.PacketBits)
	var out bytes.Buffer
	sink := NewSink(&out, true)

	e := New(Config{MaxSockets: 10, RTT: time.Second}, stream, gov, mux, dialer, nil, clk, sink, noopLogger())

	e.admit()
	assert.Equal(t, 1, dialer.opens, "rate cap must stop admission after one probe at time zero")

	clk.Advance(time.Second)
	e.admit()
	assert.Equal(t, 2, dialer.opens)
}
