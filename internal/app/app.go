// Package app wires configuration, the worker pool, the reduction engine,
// the job orchestrator, and the HTTP gateway into a runnable service.
package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/parlab/sumforge/internal/config"
	apperrors "github.com/parlab/sumforge/internal/errors"
	"github.com/parlab/sumforge/internal/jobs"
	"github.com/parlab/sumforge/internal/logging"
	"github.com/parlab/sumforge/internal/parallel"
	"github.com/parlab/sumforge/internal/reduce"
	"github.com/parlab/sumforge/internal/server"
	"github.com/parlab/sumforge/internal/sysmon"
)

// sysmonInterval is how often system CPU and memory gauges are refreshed.
const sysmonInterval = 15 * time.Second

// Application represents a configured sumforge instance.
type Application struct {
	Config    config.AppConfig
	Source    reduce.SourceFactory
	ErrWriter io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithSourceFactory substitutes the value source, letting tests run the full
// stack deterministically.
func WithSourceFactory(f reduce.SourceFactory) AppOption {
	return func(a *Application) { a.Source = f }
}

// New creates a new Application instance by parsing command-line arguments
// and environment overrides.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	programName := "sumforge"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	if app.Source == nil {
		app.Source = reduce.RandomSourceFactory(uint32(app.Config.ValueBound))
	}
	return app, nil
}

// Run serves HTTP until ctx is canceled or a termination signal arrives,
// then shuts down gracefully. The returned value is the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := logging.NewLogger(out, "sumforge")

	workers := a.Config.EffectiveWorkers()
	pool := parallel.NewPool(workers)
	engine := reduce.NewEngine(pool, workers, a.Config.ChunksPerWorker, a.Source)
	metrics := server.NewMetrics()
	orchestrator := jobs.New(engine, logger, metrics)
	srv := server.New(a.Config, Version, logger, orchestrator, metrics)

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		sysmon.Run(gctx, sysmonInterval, metrics.SetSystemStats)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down", logging.Dur("timeout", a.Config.ShutdownTimeout))
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	interrupted := ctx.Err() != nil

	orchestrator.Close()
	pool.Close()

	switch {
	case err != nil && interrupted:
		logger.Error("shutdown did not complete cleanly", logging.Err(err))
		return apperrors.ExitErrorSignal
	case err != nil:
		logger.Error("server terminated", logging.Err(err))
		return apperrors.ExitErrorGeneric
	default:
		logger.Info("stopped")
		return apperrors.ExitSuccess
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
