package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/parlab/sumforge/internal/errors"
	"github.com/parlab/sumforge/internal/logging"
	"github.com/parlab/sumforge/internal/progress"
	"github.com/parlab/sumforge/internal/reduce"
)

// Observer receives job lifecycle notifications. The server's metrics
// implement it; tests and the zero-dependency path use NopObserver.
type Observer interface {
	JobStarted(size uint64)
	JobFinished(status Status, elapsed time.Duration, elements uint64)
}

// NopObserver is an Observer that ignores all notifications.
type NopObserver struct{}

func (NopObserver) JobStarted(uint64)                         {}
func (NopObserver) JobFinished(Status, time.Duration, uint64) {}

// Orchestrator accepts compute requests and runs them on the engine's worker
// pool. Each job gets a fresh progress tracker and an independent handle;
// jobs never observe each other's state. Jobs stay in the registry until the
// gateway releases them after delivering the response, so no job outlives
// its originating request.
type Orchestrator struct {
	engine   *reduce.Engine
	logger   logging.Logger
	observer Observer

	// baseCtx detaches jobs from request contexts: a client disconnect never
	// cancels a running reduction, only orchestrator shutdown does.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]*Job
	closed  bool
	running sync.WaitGroup
}

// New creates an Orchestrator running jobs on the given engine. A nil logger
// discards logs; a nil observer ignores lifecycle events.
func New(engine *reduce.Engine, logger logging.Logger, observer Observer) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		engine:   engine,
		logger:   logger,
		observer: observer,
		baseCtx:  ctx,
		cancel:   cancel,
		jobs:     make(map[string]*Job),
	}
}

// Submit creates a job for the given size and schedules its reduction. It
// returns immediately with a handle; it never runs CPU work on the caller's
// goroutine. After Close it returns apperrors.ErrOrchestratorClosed.
func (o *Orchestrator) Submit(size uint64) (*Handle, error) {
	job := &Job{
		id:      uuid.NewString(),
		size:    size,
		tracker: progress.New(size),
		started: time.Now(),
		done:    make(chan struct{}),
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, apperrors.ErrOrchestratorClosed
	}
	o.jobs[job.id] = job
	o.running.Add(1)
	o.mu.Unlock()

	o.observer.JobStarted(size)
	o.logger.Debug("job accepted",
		logging.String("job_id", job.id),
		logging.Uint64("size", size))

	go o.run(job)

	return &Handle{job: job}, nil
}

// run executes one job to its terminal state. All failures, including
// panics that escaped the engine, are converted into a Failed job; nothing
// propagates to the request-handling goroutines.
func (o *Orchestrator) run(job *Job) {
	defer o.running.Done()

	var (
		result uint64
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job runner panic: %v", r)
			}
		}()
		result, err = o.engine.Reduce(o.baseCtx, job.size, job.tracker)
	}()

	if err != nil {
		err = apperrors.NewJobError(job.id, err)
	}

	job.result = result
	job.err = err
	job.finished = time.Now()
	close(job.done)

	elapsed := job.finished.Sub(job.started)
	if err != nil {
		o.observer.JobFinished(StatusFailed, elapsed, job.tracker.Value())
		o.logger.Error("job failed",
			logging.String("job_id", job.id),
			logging.Uint64("size", job.size),
			logging.Dur("elapsed", elapsed),
			logging.Err(err))
		return
	}
	o.observer.JobFinished(StatusCompleted, elapsed, job.size)
	o.logger.Info("job completed",
		logging.String("job_id", job.id),
		logging.Uint64("size", job.size),
		logging.Uint64("result", result),
		logging.Dur("elapsed", elapsed))
}

// Lookup returns the handle for a registered job.
func (o *Orchestrator) Lookup(id string) (*Handle, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[id]
	if !ok {
		return nil, false
	}
	return &Handle{job: job}, true
}

// Running returns snapshots of all registered jobs, most useful for the
// progress-polling route.
func (o *Orchestrator) Running() []JobView {
	o.mu.Lock()
	defer o.mu.Unlock()
	views := make([]JobView, 0, len(o.jobs))
	for _, job := range o.jobs {
		views = append(views, job.view())
	}
	return views
}

// Release removes a job from the registry once its response has been
// delivered. Unknown IDs are ignored.
func (o *Orchestrator) Release(id string) {
	o.mu.Lock()
	delete(o.jobs, id)
	o.mu.Unlock()
}

// Close stops accepting jobs, cancels the base context so no further chunks
// are submitted, and waits for in-flight job runners to finish.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
	o.running.Wait()
}
