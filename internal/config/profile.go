package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// profile mirrors the subset of Config an operator may override from a
// YAML file via -profile, instead of (or alongside) flags. Fields absent
// from the file are left untouched so partial profiles are safe to layer
// over flag defaults; a field present with a zero value (e.g. retries: 0)
// is applied.
type profile struct {
	BandwidthBps  *float64 `yaml:"bandwidth_bps"`
	PacketRatePps *float64 `yaml:"packet_rate_pps"`
	RTTSeconds    *float64 `yaml:"rtt_seconds"`
	MaxSockets    *int     `yaml:"max_sockets"`
	Retries       *int     `yaml:"retries"`
	PollType      *string  `yaml:"poll_type"`
	ShowClosed    *bool    `yaml:"show_closed"`
}

func applyProfile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var p profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return err
	}

	if p.BandwidthBps != nil {
		cfg.BandwidthBps = *p.BandwidthBps
	}
	if p.PacketRatePps != nil {
		cfg.PacketRatePps = *p.PacketRatePps
	}
	if p.RTTSeconds != nil {
		cfg.RTT = secondsToDuration(*p.RTTSeconds)
	}
	if p.MaxSockets != nil {
		cfg.MaxSockets = *p.MaxSockets
	}
	if p.Retries != nil {
		cfg.Retries = *p.Retries
	}
	if p.PollType != nil {
		cfg.PollType = *p.PollType
	}
	if p.ShowClosed != nil {
		cfg.ShowClosed = *p.ShowClosed
	}
	return nil
}
