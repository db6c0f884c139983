package reduce

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/parlab/sumforge/internal/parallel"
	"github.com/parlab/sumforge/internal/progress"
)

// DefaultChunksPerWorker is the default number of chunks scheduled per pool
// worker. A small multiple of the worker count balances per-chunk overhead
// against load balance and progress smoothness.
const DefaultChunksPerWorker = 4

// Engine folds the input domain into a single aggregate in parallel on a
// shared worker pool. The fold (sum of squares of even values) and the merge
// (summation) are associative and commutative, so the result is independent
// of chunk count, chunk size, and completion order.
type Engine struct {
	pool            *parallel.Pool
	workers         int
	chunksPerWorker int
	source          SourceFactory
}

// NewEngine creates an Engine running on the given pool. Non-positive
// workers falls back to the processor core count; non-positive
// chunksPerWorker falls back to DefaultChunksPerWorker; a nil source falls
// back to the default random source.
func NewEngine(pool *parallel.Pool, workers, chunksPerWorker int, source SourceFactory) *Engine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if chunksPerWorker < 1 {
		chunksPerWorker = DefaultChunksPerWorker
	}
	if source == nil {
		source = RandomSourceFactory(DefaultValueBound)
	}
	return &Engine{
		pool:            pool,
		workers:         workers,
		chunksPerWorker: chunksPerWorker,
		source:          source,
	}
}

// Reduce generates size values and folds them into the final aggregate,
// advancing tracker by each chunk's length as the chunk completes. A size of
// zero returns the identity aggregate (0) without scheduling any work.
//
// ctx is only consulted between chunk submissions (engine shutdown hygiene);
// chunks already submitted run to completion without yielding.
func (e *Engine) Reduce(ctx context.Context, size uint64, tracker *progress.Tracker) (uint64, error) {
	if size == 0 {
		return 0, nil
	}

	chunks := Partition(size, e.workers*e.chunksPerWorker)
	partials := make([]uint64, len(chunks))

	var ec parallel.ErrorCollector
	var wg sync.WaitGroup

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			ec.SetError(err)
			break
		}

		i, c := i, c
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					ec.SetError(fmt.Errorf("chunk [%d, %d): panic: %v", c.Start, c.End, r))
				}
			}()
			partials[i] = e.foldChunk(c)
			tracker.Advance(c.Len())
		})
		if err != nil {
			wg.Done()
			ec.SetError(err)
			break
		}
	}

	wg.Wait()

	if err := ec.Err(); err != nil {
		return 0, err
	}

	var sum uint64
	for _, p := range partials {
		sum += p
	}
	return sum, nil
}

// foldChunk computes one chunk's partial aggregate: generate Len values,
// keep the even ones, sum their squares.
func (e *Engine) foldChunk(c Chunk) uint64 {
	src := e.source(c)
	var sum uint64
	for i := c.Start; i < c.End; i++ {
		v := src.Next()
		if v%2 == 0 {
			sum += uint64(v) * uint64(v)
		}
	}
	return sum
}
