package main

import (
	"fmt"
	"os"

	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/experiment"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	seed       int64
	dt         float64
	duration   float64
	saveEvery  int
	walkers    int
	fieldName  string
	diffusion  []float64
	// batch
	numRuns   int
	workers   int
	seedStart int64
	// plot
	svgPath string
	xAxis   int
	yAxis   int
	// export
	outPath string
	// sweep
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	// calibrate
	grid      []string
	objective string
	axis      int
	target    float64

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "walks",
		Short:         "advection-diffusion random walk simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".walks", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [preset]",
		Short: "run independent replicas with consecutive seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBatch,
	}
	addRunFlags(batchCmd)
	batchCmd.Flags().IntVar(&numRuns, "runs", 8, "number of replicas")
	batchCmd.Flags().IntVar(&workers, "workers", 0, "replicas run at once (0 = all)")
	batchCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first replica")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot ensemble statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write walker paths to this SVG file")
	plotCmd.Flags().IntVar(&xAxis, "x-axis", 0, "dimension on the x-axis")
	plotCmd.Flags().IntVar(&yAxis, "y-axis", 1, "dimension on the y-axis")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize a run and estimate the effective diffusion",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run statistics to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export walker positions to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s field=%s dim=%d T=%g dt=%g\n", name, p.Field.Name, p.Dim, p.Duration, p.Dt)
			}
			return nil
		},
	}

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "list velocity fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range experiment.NewRegistry().ListFields() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [preset] [path]",
		Short: "write a preset as a run file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			return config.Save(args[1], cfg)
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep one parameter and report the ensemble spread",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "diffusion", "parameter to sweep (diffusion, diffusion.<d>, dt, duration, walkers, field.<name>, option.<name>)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.01, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate [preset]",
		Short: "grid search parameters to match a target statistic",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCalibrate,
	}
	addRunFlags(calibrateCmd)
	calibrateCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter values, e.g. diffusion=0.01,0.1,1 (repeatable)")
	calibrateCmd.Flags().StringVar(&objective, "objective", "variance", "statistic to match (variance, mean, diffusion)")
	calibrateCmd.Flags().IntVar(&axis, "axis", 0, "dimension of the statistic")
	calibrateCmd.Flags().Float64Var(&target, "target", 1, "target value")
	_ = calibrateCmd.MarkFlagRequired("grid")

	rootCmd.AddCommand(runCmd, liveCmd, batchCmd, scenarioCmd, sweepCmd, calibrateCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportJSONCmd, exportCSVCmd, presetsCmd, fieldsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run file (yaml)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "master seed (default: random)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&saveEvery, "save-every", config.DefaultSaveEvery, "store every n-th step")
	cmd.Flags().IntVar(&walkers, "walkers", config.DefaultReplication, "walkers per initial point")
	cmd.Flags().StringVar(&fieldName, "field", config.DefaultField, "velocity field")
	cmd.Flags().Float64SliceVar(&diffusion, "diffusion", nil, "diffusion coefficient per dimension")
}
