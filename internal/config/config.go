// Package config defines the service configuration and its resolution
// chain: CLI flags > environment variables > defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	apperrors "github.com/parlab/sumforge/internal/errors"
)

// EnvPrefix is prepended to every environment variable consumed by the
// service.
const EnvPrefix = "SUMFORGE_"

// Default values for the compute surface. DefaultSize is the fallback used
// whenever the requested size is missing, malformed, non-positive, or above
// MaxSize; the gateway favors availability over strict validation for this
// parameter.
const (
	DefaultSize       = 10_000_000
	DefaultMaxSize    = 100_000_000
	DefaultValueBound = 10_000
	DefaultPort       = 8080
)

// AppConfig holds the resolved service configuration.
type AppConfig struct {
	// Host and Port define the HTTP listen address.
	Host string
	Port int

	// DefaultSize is substituted for invalid size parameters; MaxSize is the
	// upper clamp applied before a job is created.
	DefaultSize uint64
	MaxSize     uint64

	// Workers sizes the CPU worker pool; 0 means the processor core count.
	// ChunksPerWorker controls chunk (and progress) granularity.
	Workers         int
	ChunksPerWorker int

	// ValueBound is the exclusive upper bound for generated values.
	ValueBound uint64

	// RateLimit enables a token-bucket limiter on the compute route when
	// positive (requests per second); RateBurst is its burst allowance.
	RateLimit float64
	RateBurst int

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration
}

// Defaults returns the baseline configuration before flags and environment
// overrides are applied.
func Defaults() AppConfig {
	return AppConfig{
		Host:            "0.0.0.0",
		Port:            DefaultPort,
		DefaultSize:     DefaultSize,
		MaxSize:         DefaultMaxSize,
		Workers:         runtime.NumCPU(),
		ChunksPerWorker: 4,
		ValueBound:      DefaultValueBound,
		RateLimit:       0,
		RateBurst:       1,
		ShutdownTimeout: 10 * time.Second,
	}
}

// ParseConfig parses command-line flags, applies environment overrides for
// flags not explicitly set, and validates the result.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	cfg := Defaults()

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP listen host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.Uint64Var(&cfg.DefaultSize, "default-size", cfg.DefaultSize, "size used when the request parameter is missing or invalid")
	fs.Uint64Var(&cfg.MaxSize, "max-size", cfg.MaxSize, "maximum accepted size; larger requests fall back to the default")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "CPU worker pool size (0 = number of cores)")
	fs.IntVar(&cfg.ChunksPerWorker, "chunks-per-worker", cfg.ChunksPerWorker, "work chunks scheduled per worker")
	fs.Uint64Var(&cfg.ValueBound, "value-bound", cfg.ValueBound, "exclusive upper bound for generated values")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "compute requests per second (0 = unlimited)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "compute rate limiter burst")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errWriter, "configuration error: %v\n", err)
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the service relies on.
func (c AppConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return apperrors.NewConfigError("port %d outside [0, 65535]", c.Port)
	}
	if c.DefaultSize == 0 {
		return apperrors.NewConfigError("default-size must be positive")
	}
	if c.MaxSize < c.DefaultSize {
		return apperrors.NewConfigError("max-size %d is below default-size %d", c.MaxSize, c.DefaultSize)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("workers must not be negative")
	}
	if c.ChunksPerWorker < 1 {
		return apperrors.NewConfigError("chunks-per-worker must be at least 1")
	}
	if c.ValueBound < 2 {
		return apperrors.NewConfigError("value-bound must be at least 2")
	}
	if c.ValueBound > math.MaxUint32 {
		return apperrors.NewConfigError("value-bound %d exceeds %d", c.ValueBound, uint64(math.MaxUint32))
	}
	if c.RateLimit < 0 {
		return apperrors.NewConfigError("rate-limit must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return apperrors.NewConfigError("rate-burst must be at least 1 when rate limiting is enabled")
	}
	if c.ShutdownTimeout <= 0 {
		return apperrors.NewConfigError("shutdown-timeout must be positive")
	}
	return nil
}

// EffectiveWorkers resolves the worker pool size, falling back to the
// processor core count.
func (c AppConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
