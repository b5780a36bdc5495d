// Package config holds the tunables of a run: how many workers split the
// file, how large a single mapping may be, and how wide boundary probes read.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
)

const (
	// DefaultMaxMappingSize stays under the 2^31 addressing limit with headroom.
	DefaultMaxMappingSize int64 = 1<<31 - 1 - 1024
	// DefaultWindowSize is the read size used when probing for line boundaries.
	DefaultWindowSize = 8 * 1024

	ModeMmap  = "mmap"
	ModePread = "pread"
)

var ErrInvalid = errors.New("invalid config")

// Config holds the tunables of a run.
type Config struct {
	Workers        int
	MaxMappingSize int64
	WindowSize     int
	Mode           string
}

// Default returns a config sized to the machine.
func Default() Config {
	return Config{
		Workers:        runtime.NumCPU(),
		MaxMappingSize: DefaultMaxMappingSize,
		WindowSize:     DefaultWindowSize,
		Mode:           ModeMmap,
	}
}

// FromEnv overlays BRC_WORKERS, BRC_MAX_MAPPING, BRC_WINDOW and BRC_MODE on
// top of Default. Unset variables keep their defaults.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv("BRC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid BRC_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	if v := os.Getenv("BRC_MAX_MAPPING"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid BRC_MAX_MAPPING: %w", err)
		}
		cfg.MaxMappingSize = n
	}

	if v := os.Getenv("BRC_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid BRC_WINDOW: %w", err)
		}
		cfg.WindowSize = n
	}

	if v := os.Getenv("BRC_MODE"); v != "" {
		cfg.Mode = v
	}

	return cfg, cfg.Validate()
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	case c.MaxMappingSize < 1:
		return fmt.Errorf("%w: max mapping size must be positive, got %d", ErrInvalid, c.MaxMappingSize)
	case c.WindowSize < 1:
		return fmt.Errorf("%w: window size must be positive, got %d", ErrInvalid, c.WindowSize)
	case c.Mode != ModeMmap && c.Mode != ModePread:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Mode)
	}
	return nil
}
