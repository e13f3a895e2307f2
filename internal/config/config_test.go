package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/Decoding/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesReferenceAnalysis(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 200, cfg.Step)
	assert.Equal(t, 0, cfg.Start)
	assert.Equal(t, 20000, cfg.Limit)
	assert.Equal(t, 16, cfg.MaxSamples)
	assert.Equal(t, 2, cfg.Permutations)
	assert.Equal(t, 0.01, cfg.AnovaSelection)
	assert.Equal(t, 1.0, cfg.MapSignificance)
	assert.Equal(t, 1000.0, cfg.SliceTimingReference)
	require.NoError(t, cfg.Validate())
}

func TestDefaultSVMSettings(t *testing.T) {
	cfg := Default()
	svm := classify.DefaultSVMParams()

	assert.Equal(t, -1.0, cfg.SVMC)
	assert.Equal(t, svm.C, cfg.SVMC)
	assert.Equal(t, svm.MaxIter, cfg.SVMMaxIter)
	assert.Equal(t, svm.Epsilon, cfg.SVMEpsilon)
	assert.Equal(t, svm.Seed, cfg.Seed)
}

func TestDelays(t *testing.T) {
	cfg := Default()

	delays := cfg.Delays()
	require.Len(t, delays, 100)
	assert.Equal(t, 0.0, delays[0])
	assert.Equal(t, 19800.0, delays[len(delays)-1])
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decode.yaml")
	require.NoError(t, os.WriteFile(path, []byte("step_ms: 500\nlimit_ms: 3000\npermutations: 10\n"), 0644))
	t.Setenv("DECODE_PERMUTATIONS", "25")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Step)
	assert.Equal(t, 3000, cfg.Limit)
	assert.Equal(t, 25, cfg.Permutations, "environment wins over file")
	assert.Equal(t, 16, cfg.MaxSamples, "untouched settings keep defaults")
	assert.Len(t, cfg.Delays(), 6)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("DECODE_STEP_MS", "fast")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero step", func(c *Config) { c.Step = 0 }},
		{"limit before start", func(c *Config) { c.Limit = c.Start }},
		{"no samples", func(c *Config) { c.MaxSamples = 0 }},
		{"min above max", func(c *Config) { c.MinSamples = c.MaxSamples + 1 }},
		{"negative permutations", func(c *Config) { c.Permutations = -1 }},
		{"selection too large", func(c *Config) { c.AnovaSelection = 1.5 }},
		{"map significance zero", func(c *Config) { c.MapSignificance = 0 }},
		{"zero C", func(c *Config) { c.SVMC = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
