package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/parlab/sumforge/internal/errors"
	"github.com/parlab/sumforge/internal/parallel"
	"github.com/parlab/sumforge/internal/reduce"
)

// indexSource mirrors the engine tests: values are a pure function of the
// element index, so results are reproducible regardless of scheduling.
type indexSource struct {
	next  uint64
	bound uint64
}

func (s *indexSource) Next() uint32 {
	v := uint32(s.next % s.bound)
	s.next++
	return v
}

func indexSourceFactory(bound uint64) reduce.SourceFactory {
	return func(c reduce.Chunk) reduce.Source {
		return &indexSource{next: c.Start, bound: bound}
	}
}

func refAggregate(size, bound uint64) uint64 {
	var sum uint64
	for i := uint64(0); i < size; i++ {
		v := i % bound
		if v%2 == 0 {
			sum += v * v
		}
	}
	return sum
}

// recordingObserver captures lifecycle notifications for assertions.
type recordingObserver struct {
	mu       sync.Mutex
	started  []uint64
	finished []Status
}

func (r *recordingObserver) JobStarted(size uint64) {
	r.mu.Lock()
	r.started = append(r.started, size)
	r.mu.Unlock()
}

func (r *recordingObserver) JobFinished(status Status, _ time.Duration, _ uint64) {
	r.mu.Lock()
	r.finished = append(r.finished, status)
	r.mu.Unlock()
}

func newTestOrchestrator(t *testing.T, workers int, source reduce.SourceFactory, obs Observer) *Orchestrator {
	t.Helper()
	pool := parallel.NewPool(workers)
	t.Cleanup(pool.Close)
	engine := reduce.NewEngine(pool, workers, 4, source)
	o := New(engine, nil, obs)
	t.Cleanup(o.Close)
	return o
}

// TestSubmitAndWait verifies the basic submit/await round trip and that the
// progress counter has reached the job size by the time the handle resolves.
func TestSubmitAndWait(t *testing.T) {
	t.Parallel()
	const (
		size  = 50_000
		bound = 101
	)
	obs := &recordingObserver{}
	o := newTestOrchestrator(t, 4, indexSourceFactory(bound), obs)

	handle, err := o.Submit(size)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if handle.Size() != size {
		t.Errorf("Size() = %d, want %d", handle.Size(), size)
	}

	result, err := handle.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if want := refAggregate(size, bound); result != want {
		t.Errorf("result = %d, want %d", result, want)
	}
	if handle.Progress() != size {
		t.Errorf("Progress() = %d after resolve, want %d", handle.Progress(), size)
	}
	if view := handle.Snapshot(); view.Status != StatusCompleted {
		t.Errorf("Status = %s, want %s", view.Status, StatusCompleted)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.started) != 1 || obs.started[0] != size {
		t.Errorf("observer started = %v, want [%d]", obs.started, size)
	}
	if len(obs.finished) != 1 || obs.finished[0] != StatusCompleted {
		t.Errorf("observer finished = %v, want [completed]", obs.finished)
	}
}

// TestZeroSizeJob verifies immediate completion with the identity result.
func TestZeroSizeJob(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, 2, indexSourceFactory(7), nil)

	handle, err := o.Submit(0)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	result, err := handle.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result != 0 {
		t.Errorf("result = %d, want identity 0", result)
	}
	view := handle.Snapshot()
	if view.Completed != 0 || view.Fraction != 1 {
		t.Errorf("view = %+v, want completed 0 of 0, fraction 1", view)
	}
}

// TestIndependentJobs verifies that concurrent jobs have isolated trackers
// and results.
func TestIndependentJobs(t *testing.T) {
	t.Parallel()
	const bound = 31
	o := newTestOrchestrator(t, 4, indexSourceFactory(bound), nil)

	sizes := []uint64{10_000, 70_000, 1}
	handles := make([]*Handle, len(sizes))
	for i, size := range sizes {
		h, err := o.Submit(size)
		if err != nil {
			t.Fatalf("Submit(%d) failed: %v", size, err)
		}
		handles[i] = h
	}

	for i, h := range handles {
		result, err := h.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait(%d) failed: %v", sizes[i], err)
		}
		if want := refAggregate(sizes[i], bound); result != want {
			t.Errorf("job size %d: result = %d, want %d", sizes[i], result, want)
		}
		if h.Progress() != sizes[i] {
			t.Errorf("job size %d: progress = %d, want %d", sizes[i], h.Progress(), sizes[i])
		}
	}
}

// TestLightweightJobNotStarvedByLargeJob verifies chunk-granularity
// interleaving on the shared pool: a size-1 job submitted after a large job
// resolves while the large job is still running.
func TestLightweightJobNotStarvedByLargeJob(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, 2, nil, nil)

	big, err := o.Submit(30_000_000)
	if err != nil {
		t.Fatalf("Submit(big) failed: %v", err)
	}
	small, err := o.Submit(1)
	if err != nil {
		t.Fatalf("Submit(small) failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := small.Wait(ctx); err != nil {
		t.Fatalf("small job did not resolve while big job ran: %v", err)
	}

	if _, err := big.Wait(ctx); err != nil {
		t.Fatalf("big job failed: %v", err)
	}
}

// TestWaitAbandonedDoesNotCancelJob verifies the accepted simplification:
// a caller that gives up waiting leaves the job running to completion.
func TestWaitAbandonedDoesNotCancelJob(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, 2, indexSourceFactory(13), nil)

	handle, err := o.Submit(2_000_000)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := handle.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("abandoned Wait = %v, want context.Canceled", err)
	}

	// The job still runs to completion.
	result, err := handle.Wait(context.Background())
	if err != nil {
		t.Fatalf("second Wait failed: %v", err)
	}
	if want := refAggregate(2_000_000, 13); result != want {
		t.Errorf("result = %d, want %d", result, want)
	}
}

// TestLookupAndRelease verifies registry semantics around response delivery.
func TestLookupAndRelease(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, 2, indexSourceFactory(7), nil)

	handle, err := o.Submit(1000)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, ok := o.Lookup(handle.ID()); !ok {
		t.Error("Lookup should find a registered job")
	}
	if views := o.Running(); len(views) != 1 {
		t.Errorf("Running() = %d jobs, want 1", len(views))
	}

	if _, err := handle.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	o.Release(handle.ID())

	if _, ok := o.Lookup(handle.ID()); ok {
		t.Error("Lookup should not find a released job")
	}
	if views := o.Running(); len(views) != 0 {
		t.Errorf("Running() = %d jobs after release, want 0", len(views))
	}
}

// TestSubmitAfterClose verifies shutdown behavior.
func TestSubmitAfterClose(t *testing.T) {
	t.Parallel()
	pool := parallel.NewPool(2)
	defer pool.Close()
	engine := reduce.NewEngine(pool, 2, 4, indexSourceFactory(7))
	o := New(engine, nil, nil)
	o.Close()

	if _, err := o.Submit(10); !errors.Is(err, apperrors.ErrOrchestratorClosed) {
		t.Errorf("Submit after Close = %v, want ErrOrchestratorClosed", err)
	}
}

// TestFailedJobResolvesWithError verifies engine failures surface through
// the handle as a JobError, with the job marked failed.
func TestFailedJobResolvesWithError(t *testing.T) {
	t.Parallel()
	pool := parallel.NewPool(2)
	pool.Close() // force scheduling failures
	engine := reduce.NewEngine(pool, 2, 4, indexSourceFactory(7))

	obs := &recordingObserver{}
	o := New(engine, nil, obs)
	defer o.Close()

	handle, err := o.Submit(1000)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	_, err = handle.Wait(context.Background())
	if err == nil {
		t.Fatal("expected job failure")
	}
	var jobErr apperrors.JobError
	if !errors.As(err, &jobErr) {
		t.Errorf("error %v should be a JobError", err)
	}
	if !errors.Is(err, apperrors.ErrPoolClosed) {
		t.Errorf("error %v should wrap ErrPoolClosed", err)
	}
	if view := handle.Snapshot(); view.Status != StatusFailed {
		t.Errorf("Status = %s, want %s", view.Status, StatusFailed)
	}
}
