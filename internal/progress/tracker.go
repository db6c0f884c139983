// Package progress provides a lock-free progress counter shared between the
// reduction workers that advance it and the HTTP readers that observe it.
package progress

import "sync/atomic"

// Tracker counts completed work units for one job. Writers call Advance from
// any number of goroutines; readers call Value concurrently without locks.
// Observed values are monotonically non-decreasing and never exceed the total.
type Tracker struct {
	done  atomic.Uint64
	total uint64
}

// New creates a Tracker for a job of the given total size. A zero total is
// complete from the start.
func New(total uint64) *Tracker {
	return &Tracker{total: total}
}

// Advance records n additional completed work units. It is safe to call
// concurrently; updates are never lost and callers never block each other
// beyond the atomic add itself. There is no rollback.
func (t *Tracker) Advance(n uint64) {
	t.done.Add(n)
}

// Value returns the number of completed work units, clamped to the total so
// a reader can never observe an overshoot.
func (t *Tracker) Value() uint64 {
	v := t.done.Load()
	if v > t.total {
		return t.total
	}
	return v
}

// Total returns the job size this tracker was created for.
func (t *Tracker) Total() uint64 {
	return t.total
}

// Done reports whether all work units have completed. A zero-size job is
// done immediately.
func (t *Tracker) Done() bool {
	return t.Value() >= t.total
}

// Fraction returns completion in [0, 1]. A zero-size job reports 1.
func (t *Tracker) Fraction() float64 {
	if t.total == 0 {
		return 1
	}
	return float64(t.Value()) / float64(t.total)
}
