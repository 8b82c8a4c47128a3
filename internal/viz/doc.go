// Package viz renders walker ensembles in the terminal.
//
//   - [Canvas]: Braille pixel canvas mapping world coordinates to dots
//   - [MeanPathPlot], [VariancePlot], [CountPlot]: asciigraph line plots
//   - [LiveModel]: Bubble Tea view fed by a [LiveObserver] during a run
//   - [Summary]: styled run summary
//
// # Key Bindings (live view)
//
//	Space - Freeze/resume the display
//	T     - Cycle color themes
//	F     - Refit the view to the ensemble
//	Q     - Quit
package viz
