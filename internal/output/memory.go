package output

import (
	"sync"

	"github.com/san-kum/walks/internal/walk"
)

// Memory accumulates snapshots in memory.
type Memory struct {
	mu     sync.Mutex
	times  []float64
	snaps  []walk.Positions
	closed bool
}

func NewMemory() *Memory {
	return &Memory{}
}

// WriteTimestep stores t and a deep copy of pos.
func (m *Memory) WriteTimestep(t float64, pos walk.Positions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.times = append(m.times, t)
	m.snaps = append(m.snaps, pos.Clone())
	return nil
}

func (m *Memory) Load() (*Trajectory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return buildTrajectory(m.times, m.snaps), nil
}

// Close stops further writes. Saved snapshots stay loadable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
