// Package rng derives reproducible per-dimension random number streams.
//
// A master generator is seeded once; every draw from it is an integer in
// [1, 65536) that seeds one dimension's stream. The same master seed always
// yields the same sequence of stream seeds and therefore the same samples.
// All generators are math/rand/v2 PCG sources, whose output does not depend
// on the platform.
//
// Generators are NOT goroutine-safe. Each stream must be sampled by a single
// caller at a time.
package rng

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxSeed is the exclusive upper bound of derived stream seeds.
const MaxSeed = 1 << 16

// MaxStreams is the largest dimension Streams can serve with distinct
// seeds.
const MaxStreams = MaxSeed - 1

// Master generates stream seeds from a single master seed.
type Master struct {
	seed int64
	src  *rand.Rand
}

// NewMaster returns a master generator seeded with seed.
func NewMaster(seed int64) *Master {
	return &Master{
		seed: seed,
		src:  rand.New(rand.NewPCG(uint64(seed), 0)),
	}
}

// NewRandomMaster returns a master generator with a nondeterministic seed.
// The chosen seed is still reported by Seed so the run can be repeated.
func NewRandomMaster() *Master {
	seed := rand.Int64N(MaxSeed) ^ time.Now().UnixNano()
	return NewMaster(seed)
}

// Next returns a seed in [1, MaxSeed).
func (m *Master) Next() int64 {
	return 1 + m.src.Int64N(MaxSeed-1)
}

func (m *Master) Seed() int64 { return m.seed }

func (m *Master) String() string {
	return fmt.Sprintf("RNG(seed=%d)", m.seed)
}

// NewStream returns the generator for one stream seed.
func NewStream(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Streams creates dim independent generators from the master seed. A nil
// seed derives the master seed nondeterministically. The stream seeds are
// returned alongside the generators; no two dimensions share a seed.
func Streams(dim int, seed *int64) ([]*rand.Rand, []int64, error) {
	if dim < 1 {
		return nil, nil, fmt.Errorf("rng: dimension must be at least 1, got %d", dim)
	}
	if dim > MaxStreams {
		return nil, nil, fmt.Errorf("rng: dimension %d exceeds %d distinct stream seeds", dim, MaxStreams)
	}

	var master *Master
	if seed == nil {
		master = NewRandomMaster()
	} else {
		master = NewMaster(*seed)
	}

	seeds := make([]int64, 0, dim)
	used := make(map[int64]struct{}, dim)
	for len(seeds) < dim {
		s := master.Next()
		if _, dup := used[s]; dup {
			continue
		}
		used[s] = struct{}{}
		seeds = append(seeds, s)
	}

	streams := make([]*rand.Rand, dim)
	for d, s := range seeds {
		streams[d] = NewStream(s)
	}
	return streams, seeds, nil
}

// StandardNormal fills dst with unit-normal samples drawn from r.
func StandardNormal(r *rand.Rand, dst []float64) {
	for i := range dst {
		dst[i] = r.NormFloat64()
	}
}
