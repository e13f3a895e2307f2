// Package config holds the tunables of the decoding pipeline.
// Values come from Default, optionally overlaid by a YAML file and then by
// DECODE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/KyungWonPark/Decoding/internal/classify"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "DECODE_"

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("config: invalid setting")

// Config contains all pipeline settings. Times are in milliseconds.
type Config struct {
	// Step is the spacing of the HRF delay grid.
	Step int `yaml:"step_ms" env:"STEP_MS"`
	// Start is the first HRF delay tested.
	Start int `yaml:"start_ms" env:"START_MS"`
	// Limit is the exclusive upper bound of the delay grid.
	Limit int `yaml:"limit_ms" env:"LIMIT_MS"`

	// MaxSamples caps the per-class sample count after balancing.
	MaxSamples int `yaml:"max_samples" env:"MAX_SAMPLES"`
	// MinSamples is the smallest per-class count still worth classifying.
	MinSamples int `yaml:"min_samples" env:"MIN_SAMPLES"`

	// Permutations is the number of Monte-Carlo label permutations.
	Permutations int `yaml:"permutations" env:"PERMUTATIONS"`
	// AnovaSelection is the fraction of voxels kept by the F-score selector.
	AnovaSelection float64 `yaml:"anova_selection" env:"ANOVA_SELECTION"`
	// MapSignificance is the fraction of voxels kept in exported weight
	// maps. 1 keeps every voxel.
	MapSignificance float64 `yaml:"map_significance" env:"MAP_SIGNIFICANCE"`

	// SliceTimingReference is added to every volume time after the
	// seconds to milliseconds conversion.
	SliceTimingReference float64 `yaml:"slice_timing_reference_ms" env:"SLICE_TIMING_REFERENCE_MS"`

	// SVM settings. A negative C means |C| times the data-scaled default.
	SVMC       float64 `yaml:"svm_c" env:"SVM_C"`
	SVMMaxIter int     `yaml:"svm_max_iter" env:"SVM_MAX_ITER"`
	SVMEpsilon float64 `yaml:"svm_epsilon" env:"SVM_EPSILON"`

	Workers  int    `yaml:"workers" env:"WORKERS"`
	Seed     int64  `yaml:"seed" env:"SEED"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// Default returns the settings of the reference analysis.
func Default() *Config {
	svm := classify.DefaultSVMParams()
	return &Config{
		Step:                 200,
		Start:                0,
		Limit:                20000,
		MaxSamples:           16,
		MinSamples:           2,
		Permutations:         2,
		AnovaSelection:       0.01,
		MapSignificance:      1,
		SliceTimingReference: 1000,
		SVMC:                 svm.C,
		SVMMaxIter:           svm.MaxIter,
		SVMEpsilon:           svm.Epsilon,
		Workers:              runtime.NumCPU(),
		Seed:                 svm.Seed,
		LogLevel:             "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	switch {
	case c.Step <= 0:
		return fmt.Errorf("%w: step_ms must be positive, got %d", ErrInvalid, c.Step)
	case c.Start < 0:
		return fmt.Errorf("%w: start_ms must not be negative, got %d", ErrInvalid, c.Start)
	case c.Limit <= c.Start:
		return fmt.Errorf("%w: limit_ms %d must exceed start_ms %d", ErrInvalid, c.Limit, c.Start)
	case c.MaxSamples < 1:
		return fmt.Errorf("%w: max_samples must be at least 1, got %d", ErrInvalid, c.MaxSamples)
	case c.MinSamples < 1 || c.MinSamples > c.MaxSamples:
		return fmt.Errorf("%w: min_samples must be in [1, %d], got %d", ErrInvalid, c.MaxSamples, c.MinSamples)
	case c.Permutations < 0:
		return fmt.Errorf("%w: permutations must not be negative, got %d", ErrInvalid, c.Permutations)
	case c.AnovaSelection <= 0 || c.AnovaSelection > 1:
		return fmt.Errorf("%w: anova_selection must be in (0, 1], got %g", ErrInvalid, c.AnovaSelection)
	case c.MapSignificance <= 0 || c.MapSignificance > 1:
		return fmt.Errorf("%w: map_significance must be in (0, 1], got %g", ErrInvalid, c.MapSignificance)
	case c.SVMC == 0:
		return fmt.Errorf("%w: svm_c must be non-zero", ErrInvalid)
	case c.SVMMaxIter < 1:
		return fmt.Errorf("%w: svm_max_iter must be at least 1, got %d", ErrInvalid, c.SVMMaxIter)
	case c.SVMEpsilon <= 0:
		return fmt.Errorf("%w: svm_epsilon must be positive, got %g", ErrInvalid, c.SVMEpsilon)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	return nil
}

// Delays returns the HRF delay grid [Start, Limit) spaced by Step.
func (c *Config) Delays() []float64 {
	var delays []float64
	for d := c.Start; d < c.Limit; d += c.Step {
		delays = append(delays, float64(d))
	}
	return delays
}
