package sim

import (
	"fmt"

	"github.com/san-kum/walks/internal/walk"
	"go.uber.org/zap"
)

// sentinel closes every schedule. Its time lies past the last step
// interval, so the cursor stops on it.
func (s *Simulation) sentinel() Source {
	return Source{
		Time:        s.cfg.T + s.cfg.Dt,
		Points:      walk.NewPositions(s.cfg.Dim, 0),
		Replication: 1,
	}
}

// ScheduleSources replaces the injection schedule. Sources must be in
// non-decreasing time order with non-negative times.
func (s *Simulation) ScheduleSources(sources []Source) error {
	if s.state == Running {
		return walk.ErrRunning
	}

	prev := 0.0
	schedule := make([]Source, 0, len(sources)+1)
	for i, src := range sources {
		if src.Time < 0 || src.Time != src.Time {
			return fmt.Errorf("%w: source %d has time %g", walk.ErrInvalidSchedule, i, src.Time)
		}
		if src.Time < prev {
			return fmt.Errorf("%w: source %d at t=%g precedes t=%g", walk.ErrInvalidSchedule, i, src.Time, prev)
		}
		if src.Replication < 1 {
			return fmt.Errorf("%w: source %d", walk.ErrInvalidReplication, i)
		}
		if src.Points.Dim() != s.cfg.Dim || src.Points.N() == 0 {
			return fmt.Errorf("%w: source %d needs at least one %d-dimensional point", walk.ErrDimensionMismatch, i, s.cfg.Dim)
		}
		if err := src.Points.Validate(); err != nil {
			return err
		}
		prev = src.Time
		schedule = append(schedule, Source{Time: src.Time, Points: src.Points.Clone(), Replication: src.Replication})
	}

	s.sources = append(schedule, s.sentinel())
	s.cursor = 0
	return nil
}

// AddSources schedules one single-point source per entry of times.
// replication may be omitted (1 each), a single value for all sources, or
// one value per source.
func (s *Simulation) AddSources(times []float64, points [][]float64, replication ...int) error {
	if len(points) != len(times) {
		return fmt.Errorf("%w: %d times but %d points", walk.ErrDimensionMismatch, len(times), len(points))
	}

	reps := make([]int, len(times))
	switch len(replication) {
	case 0:
		for i := range reps {
			reps[i] = 1
		}
	case 1:
		for i := range reps {
			reps[i] = replication[0]
		}
	case len(times):
		copy(reps, replication)
	default:
		return fmt.Errorf("%w: %d replication counts for %d sources", walk.ErrDimensionMismatch, len(replication), len(times))
	}

	sources := make([]Source, len(times))
	for i, t := range times {
		if len(points[i]) != s.cfg.Dim {
			return fmt.Errorf("%w: source %d has %d coordinates, want %d", walk.ErrDimensionMismatch, i, len(points[i]), s.cfg.Dim)
		}
		p := walk.NewPositions(s.cfg.Dim, 1)
		for d, v := range points[i] {
			p[d][0] = v
		}
		sources[i] = Source{Time: t, Points: p, Replication: reps[i]}
	}
	return s.ScheduleSources(sources)
}

// Sources returns the remaining schedule, sentinel included.
func (s *Simulation) Sources() []Source {
	out := make([]Source, len(s.sources)-s.cursor)
	copy(out, s.sources[s.cursor:])
	return out
}

// injectSources appends every source due in [t, next) and advances the
// cursor past it. next is the start of the following step, so consecutive
// intervals tile the time axis. The sentinel is never due.
func (s *Simulation) injectSources(t, next float64) {
	for s.cursor < len(s.sources)-1 {
		src := s.sources[s.cursor]
		if !(t <= src.Time && src.Time < next) {
			return
		}
		s.pos = s.pos.Append(src.Points.Repeat(src.Replication))
		s.cursor++
		s.logger.Debug("source activated",
			zap.Float64("t", t),
			zap.Float64("source_time", src.Time),
			zap.Int("added", src.Count()),
			zap.Int("walkers", s.pos.N()))
	}
}
