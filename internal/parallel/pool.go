package parallel

import (
	"runtime"
	"sync"

	apperrors "github.com/parlab/sumforge/internal/errors"
)

// Pool is a fixed-size pool of worker goroutines dedicated to CPU-bound
// tasks. It is the execution domain for the reduction engine and is fully
// disjoint from the goroutines serving HTTP requests: handlers only ever
// wait on results, they never run tasks.
//
// Tasks submitted before Close are guaranteed to run; Close drains the queue
// and joins all workers.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool creates and starts a pool with the given number of workers.
// A non-positive count falls back to the number of usable processor cores.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		tasks: make(chan func(), 2*workers),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes one task, recovering panics so a single bad task cannot kill
// a pool worker. The task wrapper built by the engine converts its own
// panics to errors first; this is the pool's last line of defense.
func (p *Pool) run(task func()) {
	defer func() {
		_ = recover()
	}()
	task()
}

// Submit queues a task for execution. It blocks while the queue is full and
// returns apperrors.ErrPoolClosed once the pool has been shut down.
//
// Submitters hold only a read lock, so concurrent jobs queue chunks
// independently: a job blocked on a full queue never stalls another job's
// submissions beyond normal channel-send ordering.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return apperrors.ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Close stops accepting tasks, runs everything already queued, and waits for
// all workers to exit. It is idempotent.
func (p *Pool) Close() {
	// The write lock excludes every in-flight Submit, so closing the channel
	// can never race a send.
	p.mu.Lock()
	alreadyClosed := p.closed
	if !alreadyClosed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
