package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyProfileOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	yamlBody := "bandwidth_bps: 500000\nshow_closed: true\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg := Config{BandwidthBps: 250_000, Retries: 2, PollType: "auto"}
	require.NoError(t, applyProfile(&cfg, path))

	assert.Equal(t, float64(500_000), cfg.BandwidthBps)
	assert.True(t, cfg.ShowClosed)
	assert.Equal(t, 2, cfg.Retries, "fields absent from the profile must keep their flag defaults")
	assert.Equal(t, "auto", cfg.PollType)
}

func TestApplyProfileRejectsMissingFile(t *testing.T) {
	var cfg Config
	assert.Error(t, applyProfile(&cfg, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestLoadRejectsBadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := Load([]string{"-h", "10.0.0.1", "-profile", path})
	assert.ErrorIs(t, err, ErrBadProfile)
}
