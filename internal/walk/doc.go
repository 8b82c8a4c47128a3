// Package walk provides core primitives for advection-diffusion random walks.
//
// The package defines the types shared by the integrators, the output sinks
// and the simulation driver:
//
//   - [Positions]: dense dim×N ensemble array, one row per spatial dimension
//   - [Field]: velocity field evaluated at particle positions (the drift)
//   - [Options]: opaque named options forwarded to a [Field]
//   - [Integrator]: advances an ensemble by one time step in place
//   - [Observer]: receives the ensemble after every completed step
//
// # Example
//
//	field := walk.FieldFunc(func(pos walk.Positions, _ walk.Options) (walk.Positions, error) {
//	    return walk.Constant(pos.N(), 1, 0), nil
//	})
//	s, _ := sim.New(cfg, field)
//	defer s.Close()
//	_ = s.SetInitialPoint([]float64{0, 0}, 100)
//	_ = s.Run(nil)
//
// # Thread Safety
//
// Positions values are plain slices and are NOT safe for concurrent
// mutation. The simulation driver owns its ensemble exclusively and only
// lends it to the integrator for the duration of one call.
package walk
