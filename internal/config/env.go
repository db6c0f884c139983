// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the SUMFORGE_ prefix) to the CLI flag
// it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flag   string
	apply  func(*AppConfig, string)
}

// envOverrides is the declarative table of all environment variable
// overrides consumed by the service.
var envOverrides = []envOverride{
	{"HOST", "host", func(c *AppConfig, v string) {
		c.Host = v
	}},
	{"PORT", "port", func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Port = parsed
		}
	}},
	{"DEFAULT_SIZE", "default-size", func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.DefaultSize = parsed
		}
	}},
	{"MAX_SIZE", "max-size", func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.MaxSize = parsed
		}
	}},
	{"WORKERS", "workers", func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Workers = parsed
		}
	}},
	{"CHUNKS_PER_WORKER", "chunks-per-worker", func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.ChunksPerWorker = parsed
		}
	}},
	{"VALUE_BOUND", "value-bound", func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.ValueBound = parsed
		}
	}},
	{"RATE_LIMIT", "rate-limit", func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimit = parsed
		}
	}},
	{"RATE_BURST", "rate-burst", func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.RateBurst = parsed
		}
	}},
	{"SHUTDOWN_TIMEOUT", "shutdown-timeout", func(c *AppConfig, v string) {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.ShutdownTimeout = parsed
		}
	}},
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// The bare PORT variable (no prefix) is honoured as a last resort for
// platform compatibility; SUMFORGE_PORT wins when both are present.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSet(fs, o.flag) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}

	if !isFlagSet(fs, "port") && os.Getenv(EnvPrefix+"PORT") == "" {
		if val := os.Getenv("PORT"); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil {
				config.Port = parsed
			}
		}
	}
}
