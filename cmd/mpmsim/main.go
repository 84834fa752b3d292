package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mpmsim/internal/analysis"
	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/metrics"
	"github.com/san-kum/mpmsim/internal/sim"
	"github.com/san-kum/mpmsim/internal/storage"
	"github.com/san-kum/mpmsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	// Run parameters, overriding the preset or config file when set
	configFile    string
	dt            float64
	duration      float64
	workers       int
	snapshotEvery int
	compress      bool
	// Series selection for plot, analyze and phase
	seriesName string
	xSeries    string
	ySeries    string

	logger *slog.Logger
)

// main registers the mpmsim commands and flags and executes the root command.
// It exits with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "mpmsim",
		Short: "explicit material point method simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mpmsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset...]",
		Short: "run one or more scenarios and store the results",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&snapshotEvery, "snapshot-every", 0, "write particle snapshots every n steps (0 disables)")
	runCmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress snapshots")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario with live terminal visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&seriesName, "series", "", "plot only this series")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&seriesName, "series", "", "series to analyze (default: first centroid_x series)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two series",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xSeries, "x", "kinetic_energy", "series on the x axis")
	phaseCmd.Flags().StringVar(&ySeries, "y", "strain_energy", "series on the y axis")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id] [step]",
		Short: "draw a stored particle snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  showSnapshot,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGRID\tBODIES\tDT\tDURATION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				names := make([]string, len(p.Bodies))
				for i, b := range p.Bodies {
					names[i] = b.Name
				}
				fmt.Fprintf(w, "%s\t%dx%d\t%s\t%g\t%gs\n",
					name, p.Grid.Numx, p.Grid.Numy, strings.Join(names, ","), p.Dt, p.Duration)
			}
			return w.Flush()
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and series to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark a scenario across worker counts",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScenario,
	}
	benchCmd.Flags().Float64Var(&duration, "time", 0.1, "simulated time per measurement")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, snapshotCmd, presetsCmd, exportJSONCmd, exportCSVCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "kernel workers (negative: one per CPU)")
}

// loadScenarios resolves the config file or the named presets, applying any
// flags the user set explicitly.
func loadScenarios(cmd *cobra.Command, names []string) ([]*config.Config, error) {
	var cfgs []*config.Config
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfgs = append(cfgs, cfg)
	}
	for _, name := range names {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		cfgs = append(cfgs, cfg)
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no scenario given: name a preset or pass --config (available: %v)", config.ListPresets())
	}

	flags := cmd.Flags()
	for _, cfg := range cfgs {
		if flags.Changed("dt") {
			cfg.Dt = dt
		}
		if flags.Changed("time") {
			cfg.Duration = duration
		}
		if flags.Changed("workers") {
			cfg.Workers = workers
		}
		if flags.Changed("snapshot-every") {
			cfg.SnapshotEvery = snapshotEvery
		}
		if flags.Changed("compress") {
			cfg.Compress = compress
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Name, err)
		}
	}
	return cfgs, nil
}

// newSimulator builds the scenario and attaches the standard metrics plus a
// centroid probe per body.
func newSimulator(cfg *config.Config) (*sim.Simulator, error) {
	g, bodies, bc, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Name, err)
	}

	s := sim.New(g, bodies, bc, sim.WithLogger(logger.With("scenario", cfg.Name)))
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	for _, b := range bodies {
		s.AddMetric(metrics.NewCentroid(b.Name, 0))
		s.AddMetric(metrics.NewCentroid(b.Name, 1))
	}
	s.AddMetric(metrics.NewStability(10))
	return s, nil
}

type pendingRun struct {
	cfg *config.Config
	sim *sim.Simulator
	run *storage.Run
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfgs, err := loadScenarios(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	pending := make([]pendingRun, 0, len(cfgs))
	jobs := make([]sim.Job, 0, len(cfgs))
	for _, cfg := range cfgs {
		s, err := newSimulator(cfg)
		if err != nil {
			return err
		}
		run, err := st.Create(cfg.Name, cfg.Compress)
		if err != nil {
			return err
		}
		if cfg.SnapshotEvery > 0 {
			s.AddSnapshotter(run)
		}
		pending = append(pending, pendingRun{cfg: cfg, sim: s, run: run})
		jobs = append(jobs, sim.Job{Name: cfg.Name, Sim: s, Config: cfg.SimConfig()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	batch := sim.NewBatch(jobs...)
	results, runErr := batch.Run(ctx)
	elapsed := time.Since(start)

	for i, p := range pending {
		meta := storage.RunMetadata{
			Scenario:  p.cfg.Name,
			Dt:        p.cfg.Dt,
			Duration:  p.cfg.Duration,
			Workers:   p.cfg.Workers,
			Particles: p.sim.ParticleCount(),
			Nodes:     p.sim.Grid().NodeCount(),
		}
		for _, b := range p.sim.Bodies() {
			meta.Bodies = append(meta.Bodies, b.Name)
		}
		if err := batch.Errors()[i]; err != nil {
			meta.Error = err.Error()
		}
		if err := p.run.Finish(meta, results[i]); err != nil {
			return err
		}
		printResult(p, results[i])
	}

	fmt.Printf("completed in %v\n", elapsed)
	return runErr
}

func printResult(p pendingRun, result *sim.Result) {
	fmt.Printf("run id: %s\n", p.run.ID)
	if result == nil {
		fmt.Println()
		return
	}
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Println("metrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	fmt.Println()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfgs, err := loadScenarios(cmd, args)
	if err != nil {
		return err
	}
	cfg := cfgs[0]

	g, bodies, bc, err := cfg.Build()
	if err != nil {
		return err
	}
	// Keep the log off the alternate screen.
	logger = slog.New(slog.DiscardHandler)
	s := sim.New(g, bodies, bc, sim.WithLogger(logger))
	return viz.Run(s, cfg.SimConfig(), cfg.Name)
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tSTEPS\tPARTICLES\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4gs\t%d\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Particles,
			status,
		)
	}

	return w.Flush()
}

func loadSeries(runID string) (*storage.RunMetadata, map[string][]float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	_, series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, series, nil
}

func sortedNames(series map[string][]float64) []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSeries(args[0])
	if err != nil {
		return err
	}

	names := sortedNames(series)
	if seriesName != "" {
		if _, ok := series[seriesName]; !ok {
			return fmt.Errorf("no series %q in run (have %v)", seriesName, names)
		}
		names = []string{seriesName}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	for _, name := range names {
		data := series[name]
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSeries(args[0])
	if err != nil {
		return err
	}

	name := seriesName
	if name == "" {
		for _, n := range sortedNames(series) {
			if strings.HasPrefix(n, "centroid_x:") {
				name = n
				break
			}
		}
	}
	data, ok := series[name]
	if !ok {
		return fmt.Errorf("no series %q in run", name)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("series: %s\n\n", name)

	padded := make([]float64, analysis.NextPow2(len(data)))
	copy(padded, data)
	ps := analysis.PowerSpectrum(padded)
	graph := asciigraph.Plot(ps[1:max(len(ps)/8, 2)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+name+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, err := analysis.DominantFrequency(data, meta.Dt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.4f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4f s\n", 1.0/freq)
	}

	body := strings.TrimPrefix(name, "centroid_x:")
	if cfg := config.GetPreset(meta.Scenario); cfg != nil {
		if want, ok := cfg.AxialFrequency(body); ok {
			fmt.Printf("expected axial frequency: %.4f hz (error %.2f%%)\n", want, 100*(freq-want)/want)
		}
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSeries(args[0])
	if err != nil {
		return err
	}
	xs, ok := series[xSeries]
	if !ok {
		return fmt.Errorf("no series %q in run", xSeries)
	}
	ys, ok := series[ySeries]
	if !ok {
		return fmt.Errorf("no series %q in run", ySeries)
	}

	fmt.Printf("phase portrait: %s\n\n", meta.ID)
	portrait := analysis.NewPhasePortrait(xSeries, xs, ySeries, ys)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func showSnapshot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID := args[0]

	steps, err := st.ListSnapshots(runID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("run %s has no snapshots", runID)
	}
	step := steps[len(steps)-1]
	if len(args) > 1 {
		if step, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("step: %w", err)
		}
	}

	records, err := st.LoadSnapshot(runID, step)
	if err != nil {
		return fmt.Errorf("%w (available steps: %v)", err, steps)
	}

	lo := [2]float64{records[0].X, records[0].Y}
	hi := lo
	for _, r := range records {
		lo[0], lo[1] = min(lo[0], r.X), min(lo[1], r.Y)
		hi[0], hi[1] = max(hi[0], r.X), max(hi[1], r.Y)
	}

	c := viz.NewCanvas(60, 20)
	view := viz.NewViewport(c, max(hi[0]-lo[0], 1e-9), max(hi[1]-lo[1], 1e-9))
	for _, r := range records {
		c.Set(view.Project(r.X-lo[0], r.Y-lo[1]))
	}

	fmt.Printf("run: %s  step: %d  particles: %d\n", runID, step, len(records))
	fmt.Printf("bounds: [%.4g, %.4g] x [%.4g, %.4g]\n\n", lo[0], hi[0], lo[1], hi[1])
	fmt.Print(c.String())
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	export := struct {
		Metadata *storage.RunMetadata `json:"metadata"`
		Times    []float64            `json:"times"`
		Series   map[string][]float64 `json:"series"`
	}{
		Metadata: meta,
		Times:    times,
		Series:   series,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	times, series, err := storage.New(dataDir).LoadSeries(args[0])
	if err != nil {
		return err
	}

	names := sortedNames(series)
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}
	for i, t := range times {
		row := []string{strconv.FormatFloat(t, 'f', 6, 64)}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(series[name][i], 'g', 10, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func benchScenario(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	cfg.Duration = duration

	counts := []int{1, 2, 4}
	if n := runtime.NumCPU(); n > 4 {
		counts = append(counts, n)
	}

	fmt.Printf("benchmarking %s\n\n", cfg.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tPARTICLES\tSTEPS\tTIME\tSTEPS/SEC\tPARTICLE-STEPS/SEC")

	for _, n := range counts {
		g, bodies, bc, err := cfg.Build()
		if err != nil {
			return err
		}
		s := sim.New(g, bodies, bc, sim.WithLogger(logger))
		simCfg := cfg.SimConfig()
		simCfg.Workers = n

		start := time.Now()
		result, err := s.Run(context.Background(), simCfg)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		stepsPerSec := float64(result.Steps) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%.3g\n",
			n, s.ParticleCount(), result.Steps, elapsed.Round(time.Millisecond),
			stepsPerSec, stepsPerSec*float64(s.ParticleCount()))
	}

	return w.Flush()
}
