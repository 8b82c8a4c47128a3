package output

import (
	"math"

	"github.com/san-kum/walks/internal/walk"
)

// Trajectory holds saved snapshots indexed [timestep][dim][particle].
// Positions[k] is padded with NaN past Counts[k].
type Trajectory struct {
	Times     []float64
	Positions [][][]float64
	Counts    []int
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// MaxCount returns the largest particle count over all snapshots.
func (tr *Trajectory) MaxCount() int {
	n := 0
	for _, c := range tr.Counts {
		if c > n {
			n = c
		}
	}
	return n
}

// Valid reports whether particle i holds data at timestep k.
func (tr *Trajectory) Valid(k, i int) bool {
	return k >= 0 && k < len(tr.Counts) && i >= 0 && i < tr.Counts[k]
}

// Snapshot returns the unpadded positions of timestep k. The rows alias the
// trajectory.
func (tr *Trajectory) Snapshot(k int) walk.Positions {
	pos := make(walk.Positions, len(tr.Positions[k]))
	for d, row := range tr.Positions[k] {
		pos[d] = row[:tr.Counts[k]]
	}
	return pos
}

// buildTrajectory pads the snapshots to a common particle count.
func buildTrajectory(times []float64, snaps []walk.Positions) *Trajectory {
	tr := &Trajectory{
		Times:     make([]float64, len(times)),
		Positions: make([][][]float64, len(snaps)),
		Counts:    make([]int, len(snaps)),
	}
	copy(tr.Times, times)

	maxN := 0
	for _, s := range snaps {
		if s.N() > maxN {
			maxN = s.N()
		}
	}

	for k, s := range snaps {
		tr.Counts[k] = s.N()
		padded := walk.NewPositions(s.Dim(), maxN)
		for d := range s {
			n := copy(padded[d], s[d])
			for i := n; i < maxN; i++ {
				padded[d][i] = math.NaN()
			}
		}
		tr.Positions[k] = padded
	}
	return tr
}
