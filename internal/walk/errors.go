package walk

import (
	"errors"
	"fmt"
)

// Domain errors for random walk simulations.
var (
	// ErrNoInitialCondition indicates a run was requested before positions were set.
	ErrNoInitialCondition = errors.New("walk: initial condition not set")

	// ErrInvalidTimestep indicates a non-positive time step.
	ErrInvalidTimestep = errors.New("walk: time step must be positive")

	// ErrInvalidDuration indicates a non-positive total simulation time.
	ErrInvalidDuration = errors.New("walk: simulation time must be positive")

	// ErrNegativeDiffusion indicates a diffusion coefficient below zero.
	ErrNegativeDiffusion = errors.New("walk: diffusion coefficient must not be negative")

	// ErrDimensionMismatch indicates arrays whose shapes do not agree.
	ErrDimensionMismatch = errors.New("walk: dimension mismatch")

	// ErrInvalidReplication indicates a replication count below one.
	ErrInvalidReplication = errors.New("walk: replication must be at least 1")

	// ErrInvalidSchedule indicates source times that are negative or out of order.
	ErrInvalidSchedule = errors.New("walk: invalid source schedule")

	// ErrRunning indicates an operation attempted while a run is in progress.
	ErrRunning = errors.New("walk: simulation is running")

	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("walk: invalid configuration")
)

// SimulationError wraps an error with the step at which a run aborted.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
