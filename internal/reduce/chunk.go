// Package reduce implements the data-parallel reduction: it partitions the
// input domain into chunks, folds each chunk on the worker pool, and merges
// the partial aggregates with an order-independent operation.
package reduce

// Chunk is a contiguous, disjoint sub-range [Start, End) of the input domain
// assigned to one worker task. Chunks exist only for the duration of one
// reduction.
type Chunk struct {
	Start uint64
	End   uint64
}

// Len returns the number of elements in the chunk.
func (c Chunk) Len() uint64 {
	return c.End - c.Start
}

// Partition splits [0, size) into at most n contiguous chunks that cover the
// range exactly once, with no gaps and no overlaps. Chunk lengths differ by
// at most one element so load stays balanced. A size of zero yields no
// chunks; n is clamped to [1, size].
//
// Chunk count is the progress-reporting granularity: progress advances once
// per completed chunk, so more chunks mean a smoother signal at the cost of
// more synchronization.
func Partition(size uint64, n int) []Chunk {
	if size == 0 {
		return nil
	}
	count := uint64(1)
	if n > 1 {
		count = uint64(n)
	}
	if count > size {
		count = size
	}

	chunks := make([]Chunk, 0, count)
	base := size / count
	rem := size % count

	var start uint64
	for i := uint64(0); i < count; i++ {
		length := base
		if i < rem {
			length++
		}
		chunks = append(chunks, Chunk{Start: start, End: start + length})
		start += length
	}
	return chunks
}
