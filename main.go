package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"goscan/internal/blocklist"
	"goscan/internal/clock"
	"goscan/internal/config"
	"goscan/internal/engine"
	"goscan/internal/platform"
	"goscan/internal/ratelimit"
	"goscan/internal/target"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	level := zerolog.WarnLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	ports, err := target.ParsePorts(cfg.Ports)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	hosts, err := target.NewHostIterator(cfg.HostExprs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	block, err := blocklist.New(cfg.Blocklist)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	maxSockets := cfg.MaxSockets
	if maxSockets <= 0 {
		maxSockets = platform.MaxSockets(platform.DefaultReservedDescriptors, platform.DefaultSocketCeiling)
	}

	mux, err := platform.New(platform.Backend(cfg.PollType))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer mux.Close()

	stream := target.NewStream(ports, hosts)
	gov := ratelimit.New(cfg.BandwidthBps, cfg.PacketRatePps, platform.PacketBits)
	sink := engine.NewSink(os.Stdout, cfg.ShowClosed)

	log.Debug().
		Uint64("probe_count", stream.Len()).
		Int("max_sockets", maxSockets).
		Msg("starting scan")

	e := engine.New(
		engine.Config{MaxSockets: maxSockets, RTT: cfg.RTT, Retries: cfg.Retries},
		stream,
		gov,
		mux,
		engine.NewRealDialer(),
		block,
		clock.Real{},
		sink,
		log,
	)

	if err := e.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}
