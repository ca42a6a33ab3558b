// Package config implements the CLI surface that drives the probe
// engine: flag parsing, bandwidth/rate suffix expansion, and an optional
// YAML scan-profile file that can override any flag default.
package config

import (
	"flag"
	"fmt"
	"time"

	"goscan/internal/target"
)

// Config is the fully resolved scan configuration handed to the engine.
type Config struct {
	HostExprs     []string
	Ports         string
	BandwidthBps  float64
	PacketRatePps float64
	RTT           time.Duration
	MaxSockets    int // 0 means auto
	Retries       int
	PollType      string
	ShowClosed    bool
	Blocklist     []string
	Verbose       bool
}

const (
	defaultRTTSeconds = 0.5
	defaultRetries    = 2
	defaultPollType   = "auto"
)

// Load parses os.Args into a Config. A -profile file, when given,
// overrides every field it sets, whether that field came from a flag
// default or an explicitly given flag.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("goscan", flag.ContinueOnError)

	targetFile := fs.String("f", "", "file of target expressions (IP/CIDR/range), one per line")
	hostArg := fs.String("h", "", "comma-separated target expressions (IP/CIDR/range)")
	ports := fs.String("p", "1-65535", "port list: N, N-M, all, or comma-separated combinations")
	bandwidth := fs.String("b", "250k", "bandwidth cap, bits/sec (accepts k, m suffixes)")
	packetRate := fs.String("P", "", "packet-rate cap, probes/sec (default unlimited)")
	rtt := fs.Float64("R", defaultRTTSeconds, "per-probe deadline, seconds")
	maxSockets := fs.Int("m", 0, "override for max concurrent sockets (0 = auto)")
	retries := fs.Int("r", defaultRetries, "max retries per probe (timeouts only)")
	pollType := fs.String("t", defaultPollType, "readiness backend: poll, epoll, auto")
	showClosed := fs.Bool("c", false, "emit closed verdicts")
	blocklistArg := fs.String("B", "", "comma-separated list of IPs to exclude")
	verbose := fs.Bool("d", false, "verbose diagnostic output")
	profile := fs.String("profile", "", "optional YAML scan-profile file overriding flag defaults")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var hostExprs []string
	switch {
	case *targetFile != "":
		exprs, err := target.ReadHostExprsFile(*targetFile)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrBadTargets, err)
		}
		hostExprs = exprs
	case *hostArg != "":
		exprs, err := target.ParseHostExprs(*hostArg)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrBadTargets, err)
		}
		hostExprs = exprs
	default:
		return Config{}, fmt.Errorf("%w: one of -f or -h is required", ErrBadTargets)
	}

	bw, err := expandNumber(*bandwidth)
	if err != nil {
		return Config{}, fmt.Errorf("%w: bandwidth: %v", ErrBadFlag, err)
	}

	var pps float64
	if *packetRate != "" {
		pps, err = expandNumber(*packetRate)
		if err != nil {
			return Config{}, fmt.Errorf("%w: packet rate: %v", ErrBadFlag, err)
		}
	}

	if *rtt <= 0 {
		return Config{}, fmt.Errorf("%w: RTT must be positive", ErrBadFlag)
	}

	var blocked []string
	if *blocklistArg != "" {
		exprs, err := target.ParseHostExprs(*blocklistArg)
		if err != nil {
			return Config{}, fmt.Errorf("%w: blocklist: %v", ErrBadFlag, err)
		}
		blocked = exprs
	}

	cfg := Config{
		HostExprs:     hostExprs,
		Ports:         *ports,
		BandwidthBps:  bw,
		PacketRatePps: pps,
		RTT:           time.Duration(*rtt * float64(time.Second)),
		MaxSockets:    *maxSockets,
		Retries:       *retries,
		PollType:      *pollType,
		ShowClosed:    *showClosed,
		Blocklist:     blocked,
		Verbose:       *verbose,
	}

	if *profile != "" {
		if err := applyProfile(&cfg, *profile); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrBadProfile, err)
		}
	}

	return cfg, nil
}

// expandNumber parses a bandwidth/rate value like "250k", "1m", or a bare
// integer, per the original tcpy_scanner's expand_number.
func expandNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	suffix := s[len(s)-1]
	multiplier := 1.0
	numeric := s
	switch suffix {
	case 'k', 'K':
		multiplier = 1_000
		numeric = s[:len(s)-1]
	case 'm', 'M':
		multiplier = 1_000_000
		numeric = s[:len(s)-1]
	case 'g', 'G':
		multiplier = 1_000_000_000
		numeric = s[:len(s)-1]
	}
	var value float64
	if _, err := fmt.Sscanf(numeric, "%g", &value); err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	result := value * multiplier
	if result < 1 {
		return 0, fmt.Errorf("value %q is too low", s)
	}
	return result, nil
}
