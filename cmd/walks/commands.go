package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/walks/internal/analysis"
	"github.com/san-kum/walks/internal/automation"
	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/experiment"
	"github.com/san-kum/walks/internal/export"
	"github.com/san-kum/walks/internal/optim"
	"github.com/san-kum/walks/internal/sim"
	"github.com/san-kum/walks/internal/storage"
	"github.com/san-kum/walks/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadRunConfig resolves the run file: preset argument, then --config, then
// flags that were set explicitly.
func loadRunConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if len(args) > 0 {
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("save-every") {
		cfg.SaveEvery = saveEvery
	}
	if flags.Changed("walkers") {
		cfg.Initial.Replication = walkers
	}
	if flags.Changed("field") {
		cfg.Field.Name = fieldName
	}
	if flags.Changed("diffusion") {
		cfg.Diffusion = diffusion
	}
	if flags.Changed("seed") {
		cfg.Seed = &seed
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	seedValue := exp.Seed()
	cfg.Seed = &seedValue

	run, err := st.Create(cfg)
	if err != nil {
		return err
	}
	log := logger.With(zap.String("run_id", run.ID))

	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}
	defer exp.Close()

	fmt.Printf("running %s (%s field)...\n", displayName(cfg), cfg.Field.Name)
	result, err := exp.Run()
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return err
	}

	tr, err := exp.GetSimulator().Trajectory()
	if err != nil {
		return err
	}
	summary := analysis.Summarize(tr)

	meta := &storage.RunMetadata{
		ID:           run.ID,
		Name:         cfg.Name,
		Field:        cfg.Field.Name,
		Timestamp:    time.Now(),
		Seed:         result.Seed,
		StreamSeeds:  result.StreamSeeds,
		Dim:          cfg.Dim,
		Diffusion:    cfg.Diffusion,
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		SaveEvery:    cfg.SaveEvery,
		Walkers:      result.Walkers,
		Snapshots:    summary.Snapshots,
		MeanPosition: result.MeanPosition,
		WallTime:     result.WallTime,
	}
	if err := st.Save(meta); err != nil {
		return err
	}
	log.Info("run stored", zap.Int("snapshots", summary.Snapshots))

	fmt.Println(viz.Summary(viz.SummaryData{
		Title:        displayName(cfg),
		ID:           run.ID,
		Seed:         result.Seed,
		Walkers:      result.Walkers,
		Snapshots:    summary.Snapshots,
		MeanPosition: result.MeanPosition,
		Variance:     summary.Variance,
		Elapsed:      result.WallTime.Round(time.Millisecond).String(),
	}))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	// the view owns the terminal
	exp := experiment.New(cfg, zap.NewNop())
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}
	defer exp.Close()

	seedValue := exp.Seed()
	finished, err := viz.RunLive(exp.GetSimulator(), &seedValue, displayName(cfg))
	if err != nil {
		return err
	}
	if !finished {
		logger.Info("live view closed before the run ended")
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	logger.Info("starting batch", zap.Int("runs", numRuns), zap.Int("workers", workers), zap.Int64("seed_start", seedStart))
	start := time.Now()
	results, err := sim.NewBatch(experiment.BatchFactory(cfg, experiment.NewRegistry(), seedStart), numRuns, seedStart).
		SetWorkers(workers).
		Run()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tWALKERS\tMEAN")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\n", r.Seed, r.Walkers, viz.FormatVector(r.MeanPosition))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d runs in %v\n", len(results), time.Since(start).Round(time.Millisecond))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger.Info("starting scenario", zap.String("name", scenario.Name), zap.Int("steps", len(scenario.Steps)))

	results, err := automation.RunScenario(scenario, experiment.NewRegistry(), logger)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSEED\tWALKERS\tMEAN\tWALL")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%v\n", i+1, r.Seed, r.Walkers, viz.FormatVector(r.MeanPosition), r.WallTime.Round(time.Millisecond))
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(&automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tWALKERS\tMEAN\tVARIANCE\tD_EFF\n", sweepParam)
	for _, r := range results {
		deff := "-"
		if r.Diffusion != nil {
			deff = viz.FormatVector(r.Diffusion)
		}
		fmt.Fprintf(w, "%g\t%d\t%s\t%s\t%s\n", r.ParamValue, r.Walkers, viz.FormatVector(r.MeanPosition), viz.FormatVector(r.Variance), deff)
	}
	return w.Flush()
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, g := range grid {
		name, list, ok := strings.Cut(g, "=")
		if !ok {
			return fmt.Errorf("bad grid %q, want name=v1,v2,...", g)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return fmt.Errorf("bad value in grid %q: %w", g, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	var obj optim.Objective
	switch objective {
	case "variance":
		obj = optim.VarianceTarget(axis, target)
	case "mean":
		obj = optim.MeanTarget(axis, target)
	case "diffusion":
		obj = optim.DiffusionTarget(axis, target)
	default:
		return fmt.Errorf("unknown objective: %s", objective)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting calibration", zap.Strings("grid", grid), zap.String("objective", objective), zap.Float64("target", target))
	best, score, err := gs.Search(ctx, cfg, experiment.NewRegistry(), obj)
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Printf("%s = %g\n", name, best[name])
	}
	fmt.Printf("%s[%d] off by %g\n", objective, axis, score)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFIELD\tTIME\tDURATION\tDT\tWALKERS\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.4f\t%d\t%d\n",
			run.ID[:8],
			run.Name,
			run.Field,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Walkers,
			run.Seed,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if tr.Len() < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("field: %s\n", meta.Field)
	fmt.Printf("snapshots: %d\n\n", tr.Len())

	for _, graph := range []string{viz.MeanPathPlot(tr), viz.VariancePlot(tr), viz.CountPlot(tr)} {
		if graph == "" {
			continue
		}
		fmt.Println(graph)
		fmt.Println()
	}

	if meta.Dim >= 2 {
		xs, ys := analysis.Path(tr, xAxis, yAxis)
		canvas := viz.NewCanvas(60, 15)
		canvas.Bounds = viz.Fit(tr.Snapshot(tr.Len()-1), xAxis, yAxis)
		canvas.PlotEnsemble(tr.Snapshot(tr.Len()-1), xAxis, yAxis)
		canvas.PlotPath(xs, ys)
		fmt.Print(canvas.String())
	}

	if svgPath != "" {
		f, err := os.Create(svgPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WritePaths(f, tr, xAxis, yAxis, 800, 600); err != nil {
			return err
		}
		fmt.Printf("\nwalker paths written to %s\n", svgPath)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	s := analysis.Summarize(tr)
	fmt.Println(viz.Summary(viz.SummaryData{
		Title:        fmt.Sprintf("%s (%s field)", meta.Name, meta.Field),
		ID:           meta.ID,
		Seed:         meta.Seed,
		Walkers:      s.Walkers,
		Snapshots:    s.Snapshots,
		MeanPosition: s.MeanPosition,
		Variance:     s.Variance,
		Diffusion:    s.Diffusion,
	}))
	if s.Diffusion != nil {
		fmt.Printf("configured diffusion: %s\n", viz.FormatVector(meta.Diffusion))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error { return st.ExportJSON(runID, w) })
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error { return st.ExportCSV(runID, w) })
}

// withOutput runs fn against --output, or stdout when unset.
func withOutput(fn func(io.Writer) error) error {
	if outPath == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func displayName(cfg *config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return "custom run"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
