package sim

import (
	"golang.org/x/sync/errgroup"
)

// Factory builds the simulation for replica i. Each replica must own its
// field state, integrator and sink.
type Factory func(i int) (*Simulation, error)

// BatchResult summarises one replica of a batch.
type BatchResult struct {
	Seed         int64
	Walkers      int
	MeanPosition []float64
}

// Batch runs independent replicas of a simulation with consecutive seeds.
type Batch struct {
	build     Factory
	numRuns   int
	seedStart int64
	workers   int
}

func NewBatch(build Factory, numRuns int, seedStart int64) *Batch {
	return &Batch{build: build, numRuns: numRuns, seedStart: seedStart}
}

// SetWorkers limits how many replicas run at once. Zero or less means no
// limit.
func (b *Batch) SetWorkers(n int) *Batch {
	b.workers = n
	return b
}

// Run executes every replica and returns their results in replica order.
// If any replica fails, the first error is returned after all have finished.
func (b *Batch) Run() ([]BatchResult, error) {
	results := make([]BatchResult, b.numRuns)

	var g errgroup.Group
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}
	for i := 0; i < b.numRuns; i++ {
		g.Go(func() error {
			s, err := b.build(i)
			if err != nil {
				return err
			}
			defer s.Close()

			seed := b.seedStart + int64(i)
			if err := s.Run(&seed); err != nil {
				return err
			}
			results[i] = BatchResult{Seed: seed, Walkers: s.N(), MeanPosition: s.MeanPosition()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
