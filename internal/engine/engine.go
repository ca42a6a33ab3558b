package engine

import (
	"time"

	"github.com/rs/zerolog"

	"goscan/internal/blocklist"
	"goscan/internal/clock"
	"goscan/internal/platform"
	"goscan/internal/ratelimit"
	"goscan/internal/target"
)

// Config carries the per-scan knobs that would otherwise be global
// mutable state: socket cap, per-probe deadline, and retry budget. No
// process-wide singleton exists; every mutator is reached through an
// Engine value.
type Config struct {
	MaxSockets int
	RTT        time.Duration
	Retries    int
}

type inFlightRecord struct {
	probe    target.Probe
	issuedAt time.Time
	deadline time.Time
}

// Engine is the probe engine. It exclusively owns the
// in-flight map and the target stream; the multiplexer only borrows
// socket handles. Engine is not safe for concurrent use -- the scan loop
// is strictly single-threaded.
type Engine struct {
	cfg Config

	stream *target.Stream
	gov    *ratelimit.Governor
	mux    platform.Multiplexer
	dialer Dialer
	block  *blocklist.Blocklist
	clk    clock.Clock
	sink   *Sink
	log    zerolog.Logger

	inflight map[int]*inFlightRecord
}

// New builds an Engine. cfg.MaxSockets must be > 0.
func New(
	cfg Config,
	stream *target.Stream,
	gov *ratelimit.Governor,
	mux platform.Multiplexer,
	dialer Dialer,
	block *blocklist.Blocklist,
	clk clock.Clock,
	sink *Sink,
	log zerolog.Logger,
) *Engine {
	if cfg.MaxSockets < 1 {
		cfg.MaxSockets = 1
	}
	return &Engine{
		cfg:      cfg,
		stream:   stream,
		gov:      gov,
		mux:      mux,
		dialer:   dialer,
		block:    block,
		clk:      clk,
		sink:     sink,
		log:      log,
		inflight: make(map[int]*inFlightRecord),
	}
}

// Run drives the scan to completion: admission, readiness-wait,
// classification, retry, and emission, until the target stream is
// exhausted, the in-flight set is empty, and the retry queue is drained.
func (e *Engine) Run() error {
	for {
		if e.stream.Done() && len(e.inflight) == 0 {
			break
		}

		e.admit()

		if e.stream.Done() && len(e.inflight) == 0 {
			break
		}

		now := e.clk.Now()
		waitFor := e.computeWait(now)

		events, err := e.mux.Wait(waitFor)
		if err != nil {
			return err
		}
		e.handleEvents(events)
		e.handleTimeouts(e.clk.Now())
	}
	return e.sink.Flush()
}

// admit fills the in-flight set up to M, honouring the rate governor and
// the tie-break rule: whenever the next admission slot has not yet
// arrived, admission stops so the loop can service I/O instead of
// spinning on a sleep (this is what lets timeout detection keep up under
// aggressive rate limits).
func (e *Engine) admit() {
	for len(e.inflight) < e.cfg.MaxSockets {
		now := e.clk.Now()
		if e.gov.AllowedAt().After(now) {
			return
		}
		if e.stream.Done() {
			return
		}

		belowLowWater := len(e.inflight) < e.lowWaterMark()
		probe, ok := e.stream.Next(belowLowWater)
		if !ok {
			return
		}
		if e.block.IsBlocked(probe.Addr()) {
			continue
		}

		e.issue(probe, now)
	}
}

func (e *Engine) lowWaterMark() int {
	m := e.cfg.MaxSockets / 4
	if m < 1 {
		m = 1
	}
	return m
}

func (e *Engine) issue(probe target.Probe, now time.Time) {
	handle, err := e.dialer.Open()
	if err != nil {
		e.onResourceExhaustion(err)
		e.stream.PushRetry(probe)
		return
	}

	res := e.dialer.Connect(handle, probe.Addr(), int(probe.Port))
	e.gov.Issue(now) // a fast success or refusal still put bits on the wire

	switch res {
	case platform.ConnectOpen:
		_ = e.dialer.Close(handle)
		e.emit(probe, Open)
	case platform.ConnectRefused:
		_ = e.dialer.Close(handle)
		e.emit(probe, Closed)
	case platform.ConnectUnreachable:
		_ = e.dialer.Close(handle)
		e.emit(probe, Filtered)
	case platform.ConnectFatal:
		_ = e.dialer.Close(handle)
		e.log.Error().
			Str("ip", probe.Addr().String()).
			Uint16("port", probe.Port).
			Msg("fatal connect error, skipping address")
	default: // platform.ConnectInProgress
		if err := e.mux.Register(handle); err != nil {
			_ = e.dialer.Close(handle)
			e.stream.PushRetry(probe)
			return
		}
		e.inflight[handle] = &inFlightRecord{
			probe:    probe,
			issuedAt: now,
			deadline: now.Add(e.cfg.RTT),
		}
	}
}

// onResourceExhaustion halves the socket cap so the scan keeps making
// progress under descriptor pressure instead of aborting, per the
// resource-exhaustion clause of the error taxonomy.
func (e *Engine) onResourceExhaustion(err error) {
	e.cfg.MaxSockets /= 2
	if e.cfg.MaxSockets < 1 {
		e.cfg.MaxSockets = 1
	}
	e.log.Warn().Err(err).Int("new_max_sockets", e.cfg.MaxSockets).
		Msg("socket exhaustion, reducing concurrent sockets")
}

func (e *Engine) computeWait(now time.Time) time.Duration {
	waitFor := time.Duration(-1) // sentinel: no bound yet

	if !e.stream.Done() {
		delay := e.gov.AllowedAt().Sub(now)
		if delay < 0 {
			delay = 0
		}
		waitFor = delay
	}
	for _, rec := range e.inflight {
		d := rec.deadline.Sub(now)
		if d < 0 {
			d = 0
		}
		if waitFor < 0 || d < waitFor {
			waitFor = d
		}
	}
	if waitFor < 0 {
		waitFor = 0
	}
	return waitFor
}

// handleEvents classifies every readiness event. The pending SO_ERROR is
// always read as authoritative rather than trusting a bare writable
// flag, since a writable event alone can't distinguish success from a
// refusal that arrives in the same instant.
func (e *Engine) handleEvents(events []platform.Event) {
	for _, ev := range events {
		rec, ok := e.inflight[ev.Handle]
		if !ok {
			continue // stale event for an already-released handle
		}

		res := e.dialer.SocketError(ev.Handle)
		if res == platform.ConnectInProgress {
			continue // spurious wakeup; stays registered, level-triggered re-delivery will follow
		}

		delete(e.inflight, ev.Handle)
		_ = e.mux.Unregister(ev.Handle)
		_ = e.dialer.Close(ev.Handle)

		switch res {
		case platform.ConnectOpen:
			e.emit(rec.probe, Open)
		case platform.ConnectRefused:
			e.emit(rec.probe, Closed)
		case platform.ConnectUnreachable, platform.ConnectFatal:
			// Non-retryable: the probe already proved its own outcome.
			e.emit(rec.probe, Filtered)
		}
	}
}

// handleTimeouts closes every in-flight record whose deadline has
// passed without an event, retrying it unless the attempt budget is
// spent.
func (e *Engine) handleTimeouts(now time.Time) {
	for handle, rec := range e.inflight {
		if rec.deadline.After(now) {
			continue
		}

		delete(e.inflight, handle)
		_ = e.mux.Unregister(handle)
		_ = e.dialer.Close(handle)

		if int(rec.probe.Attempt) < e.cfg.Retries {
			e.stream.PushRetry(target.Probe{
				IP:      rec.probe.IP,
				Port:    rec.probe.Port,
				Attempt: rec.probe.Attempt + 1,
			})
			continue
		}
		e.emit(rec.probe, Filtered)
	}
}

func (e *Engine) emit(probe target.Probe, v Verdict) {
	if err := e.sink.Emit(probe.Key(), probe.Addr().String(), v); err != nil {
		e.log.Error().Err(err).Msg("failed to write verdict")
	}
}
