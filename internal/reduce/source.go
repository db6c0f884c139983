package reduce

import "math/rand/v2"

// DefaultValueBound is the exclusive upper bound for generated values,
// matching the demo workload: uniform integers in [0, 10000).
const DefaultValueBound = 10_000

// Source yields the values folded into one chunk's partial aggregate.
// Implementations need not be safe for concurrent use; the engine creates
// one Source per chunk.
type Source interface {
	Next() uint32
}

// SourceFactory creates the Source for a chunk of the input domain. Tests
// substitute factories that derive values from the absolute index so the
// aggregate is identical for any chunking scheme or worker count.
type SourceFactory func(Chunk) Source

type randomSource struct {
	rng   *rand.Rand
	bound uint32
}

func (s *randomSource) Next() uint32 {
	return s.rng.Uint32N(s.bound)
}

// RandomSourceFactory returns the production SourceFactory: an independently
// seeded PCG generator per chunk producing values in [0, bound). Per-chunk
// generators keep workers free of shared state. Values are not reproducible
// run to run; only the aggregate's distribution is.
func RandomSourceFactory(bound uint32) SourceFactory {
	if bound == 0 {
		bound = DefaultValueBound
	}
	return func(Chunk) Source {
		return &randomSource{
			rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			bound: bound,
		}
	}
}
