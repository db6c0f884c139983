// Package jobs bridges the request-handling layer to the CPU-bound
// reduction engine: it owns job lifecycles, schedules reductions onto the
// worker pool domain, and hands out handles that can be awaited for the
// result or polled for progress.
package jobs

import (
	"context"
	"time"

	"github.com/parlab/sumforge/internal/format"
	"github.com/parlab/sumforge/internal/progress"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one instance of "compute the aggregate for size N". It is created
// by the orchestrator, mutated only by the engine goroutine (progress, then
// terminal result or error), and read through its Handle.
type Job struct {
	id      string
	size    uint64
	tracker *progress.Tracker
	started time.Time

	// Terminal state. result/err/finished are written exactly once by the
	// runner goroutine before done is closed; done is the publication point.
	done     chan struct{}
	result   uint64
	err      error
	finished time.Time
}

// JobView is a point-in-time, JSON-ready snapshot of a job for the progress
// routes.
type JobView struct {
	ID        string  `json:"id"`
	Status    Status  `json:"status"`
	Size      uint64  `json:"size"`
	Completed uint64  `json:"completed"`
	Fraction  float64 `json:"fraction"`
	ElapsedMS int64   `json:"elapsed_ms"`
	ETA       string  `json:"eta,omitempty"`
}

// Handle is the caller's view of a submitted job: await the result, or read
// progress without blocking.
type Handle struct {
	job *Job
}

// ID returns the job's opaque identifier.
func (h *Handle) ID() string { return h.job.id }

// Size returns the number of elements the job will process.
func (h *Handle) Size() uint64 { return h.job.size }

// Progress returns the number of elements processed so far. It never blocks
// and is safe to call at any point in the job's life: 0 before work starts,
// Size after completion.
func (h *Handle) Progress() uint64 { return h.job.tracker.Value() }

// Wait blocks until the job reaches a terminal state and returns its
// aggregate, or returns early with ctx's error if the caller gives up.
// An abandoned Wait does not cancel the job; it runs to completion and the
// result is discarded.
func (h *Handle) Wait(ctx context.Context) (uint64, error) {
	select {
	case <-h.job.done:
		return h.job.result, h.job.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Snapshot returns a non-blocking view of the job's current state.
func (h *Handle) Snapshot() JobView {
	return h.job.view()
}

func (j *Job) view() JobView {
	status := StatusRunning
	elapsed := time.Since(j.started)
	select {
	case <-j.done:
		elapsed = j.finished.Sub(j.started)
		if j.err != nil {
			status = StatusFailed
		} else {
			status = StatusCompleted
		}
	default:
	}

	v := JobView{
		ID:        j.id,
		Status:    status,
		Size:      j.size,
		Completed: j.tracker.Value(),
		Fraction:  j.tracker.Fraction(),
		ElapsedMS: elapsed.Milliseconds(),
	}
	if status == StatusRunning {
		v.ETA = format.FormatETA(format.EstimateETA(elapsed, v.Fraction))
	}
	return v
}
