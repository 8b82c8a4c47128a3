// Package analysis computes ensemble statistics from recorded trajectories.
//
// Snapshots padded with NaN are reduced over their valid walkers only:
//
//   - [MeanPath]: ensemble mean per snapshot and dimension
//   - [VariancePath]: ensemble variance per snapshot and dimension
//   - [EffectiveDiffusion]: slope of variance growth, Var(t) ≈ 2 D t
//   - [Summarize]: final-state summary of a run
//
// # Diffusion Estimate
//
// Under pure diffusion the variance grows linearly, so a regression of the
// variance path against time recovers the diffusion coefficient:
//
//	d, err := analysis.EffectiveDiffusion(tr)
//	// d[0] ≈ cfg.Diffusion[0]
package analysis
