// Package parallel provides the fixed-size worker pool that executes
// CPU-bound reduction chunks, plus small synchronization helpers shared by
// the compute path.
package parallel

import "sync"

// ErrorCollector captures the first non-nil error reported by any of a set
// of concurrent workers. The zero value is ready to use. Nil errors are
// ignored, so workers can report unconditionally.
type ErrorCollector struct {
	mu  sync.Mutex
	err error
}

// SetError records err if it is the first non-nil error seen. Safe for
// concurrent use.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Err returns the first recorded error, or nil if none was set.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
