package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/epicycle/internal/analysis"
	"github.com/san-kum/epicycle/internal/automation"
	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/experiment"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/logging"
	"github.com/san-kum/epicycle/internal/models"
	"github.com/san-kum/epicycle/internal/sim"
	"github.com/san-kum/epicycle/internal/storage"
	"github.com/san-kum/epicycle/internal/store"
	"github.com/san-kum/epicycle/internal/telemetry"
	"github.com/san-kum/epicycle/internal/tui"
	"github.com/san-kum/epicycle/internal/vehicle"
)

var (
	configFile string
	preset     string
	logLevel   string
	dsn        string

	integrator string
	dt         float64
	duration   float64
	sample     float64
	adaptive   bool
	modelNames []string

	save      bool
	influx    bool
	csvPath   string
	jsonPath  string
	watch     bool
	frameRate int

	channel   string
	spectrum  string
	xChannel  string
	yChannel  string
	format    string
	output    string
	reference string

	param    string
	minVal   float64
	maxVal   float64
	numSteps int

	trials   int
	seed     int64
	posSigma float64
	velSigma float64

	initial bool
)

var (
	appCfg   *config.Config
	logger   = zerolog.Nop()
	closeLog = func() error { return nil }
)

var (
	title = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	faint = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "epicycle",
		Short:             "rigid-body orbit and attitude propagator",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dsn, "db", "", "storage dsn (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a scenario",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run")
	runCmd.Flags().BoolVar(&influx, "influx", false, "write every step to InfluxDB")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write samples to a csv file")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "write the run to a json file")
	runCmd.Flags().BoolVar(&watch, "watch", false, "draw the orbit while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for --watch")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list integrators and force models",
		Args:  cobra.NoArgs,
		RunE:  listComponents,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset scenarios",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a channel of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&channel, "channel", "alt", "channel: "+strings.Join(channelNames, ", "))

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "orbital and spectral periods of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&spectrum, "channel", "radius", "channel for the spectrum")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two channels",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xChannel, "x", "rx", "channel on the x axis")
	phaseCmd.Flags().StringVar(&yChannel, "y", "ry", "channel on the y axis")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, csv, lp (influx line protocol) or svg")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator] [integrator] ...",
		Short: "compare integrators on the same scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	scenarioFlags(compareCmd)
	compareCmd.Flags().StringVar(&reference, "reference", "rk4", "reference integrator")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a scenario over a range of one parameter",
		Args:  cobra.NoArgs,
		RunE:  sweepParameter,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", automation.ParamDt, "dt, mass, speed or radius")
	sweepCmd.Flags().Float64Var(&minVal, "min", 5, "first value")
	sweepCmd.Flags().Float64Var(&maxVal, "max", 30, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 6, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "disperse the initial state and propagate many trials",
		Args:  cobra.NoArgs,
		RunE:  monteCarlo,
	}
	scenarioFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: config seed)")
	mcCmd.Flags().Float64Var(&posSigma, "pos-sigma", 1000, "position dispersion (m)")
	mcCmd.Flags().Float64Var(&velSigma, "vel-sigma", 1, "velocity dispersion (m/s)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioFile,
	}
	scenarioCmd.Flags().BoolVar(&save, "save", true, "store every step")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "propagate with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [file]",
		Short: "write the binary vehicle image after propagating",
		Args:  cobra.ExactArgs(1),
		RunE:  writeSnapshot,
	}
	scenarioFlags(snapshotCmd)
	snapshotCmd.Flags().BoolVar(&initial, "initial", false, "write the image before propagating")

	inspectCmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "print a binary vehicle image",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectSnapshot,
	}

	rootCmd.AddCommand(runCmd, listCmd, presetsCmd, runsCmd, deleteCmd, plotCmd, analyzeCmd, phaseCmd, exportCmd, compareCmd, sweepCmd, mcCmd, scenarioCmd, liveCmd, snapshotCmd, inspectCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "preset scenario (group/name)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	cmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "duration (s)")
	cmd.Flags().Float64Var(&sample, "sample", config.DefaultSample, "sampling interval (s)")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size")
	cmd.Flags().StringSliceVar(&modelNames, "models", nil, "force models")
}

// setup loads the configuration of the command and builds the root logger.
// A preset replaces the scenario part of the file and environment
// configuration; flags override both.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(configFile)
	if err != nil {
		return err
	}
	if preset != "" {
		p, err := automation.ScenarioStep{Preset: preset}.Resolve()
		if err != nil {
			return err
		}
		p.Storage, p.Influx, p.Logging = cfg.Storage, cfg.Influx, cfg.Logging
		cfg = p
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("duration") {
		cfg.Duration = duration
	}
	if flags.Changed("sample") {
		cfg.Sample = sample
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("models") {
		cfg.Models = modelNames
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("db") {
		cfg.Storage.DSN = dsn
	}

	log, closer, err := logging.Setup(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	appCfg, logger, closeLog = cfg, log, closer
	return nil
}

func openStore() (*storage.Store, error) {
	st, err := storage.Open(appCfg.Storage.Driver, appCfg.Storage.DSN, logging.Component(logger, "storage"))
	if err != nil {
		return nil, err
	}
	if err := st.Init(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return uint(id), nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	registry := experiment.NewRegistry()
	exp, err := experiment.New(appCfg, registry, logging.Component(logger, "propagator"))
	if err != nil {
		return err
	}

	if influx {
		ic := appCfg.Influx
		if ic.URL == "" {
			return fmt.Errorf("--influx needs influx.url in the config or EPICYCLE_INFLUX_URL")
		}
		sink := telemetry.NewInfluxSink(ic.URL, ic.Token, ic.Org, ic.Bucket, appCfg.Name, logger)
		defer sink.Close()
		if !sink.Ping(ctx) {
			logger.Warn().Str("url", ic.URL).Msg("continuing without a reachable InfluxDB")
		}
		exp.Propagator().AddObserver(sink)
	}
	if watch {
		r := tui.NewLiveRenderer(os.Stdout, appCfg.Name, frameRate, linalg.Vec(appCfg.Initial.R).Norm())
		r.Start()
		defer r.Stop()
		exp.Propagator().AddObserver(r)
	}

	fmt.Printf("running %s with %s...\n", title.Render(appCfg.Name), appCfg.Integrator)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if save {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.Save(appCfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %d\n", id)
	}
	printResult(result)

	if csvPath != "" {
		if err := store.ExportCSV(csvPath, result.Samples); err != nil {
			return err
		}
		fmt.Printf("samples written to %s\n", csvPath)
	}
	if jsonPath != "" {
		if err := store.ExportJSON(jsonPath, appCfg, result); err != nil {
			return err
		}
		fmt.Printf("run written to %s\n", jsonPath)
	}
	return nil
}

func printResult(result *sim.Result) {
	final := result.Final()
	fmt.Printf("steps: %d  rejected: %d  events: %d  samples: %d\n", result.Steps, result.Rejected, result.Events, len(result.Samples))
	fmt.Printf("final: t=%.1f |r|=%.1fkm |v|=%.2fm/s |w|=%.4frad/s m=%.2fkg\n",
		final.T, final.System.R.Norm()/1e3, final.System.V.Norm(), final.System.W.Norm(), final.Mass)
	printMetrics(result.Metrics)
}

func printMetrics(metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-16s %.6g\n", name, metrics[name])
	}
}

func listComponents(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	fmt.Println(title.Render("integrators"))
	for _, name := range registry.ListIntegrators() {
		method, err := registry.GetIntegrator(name)
		if err != nil {
			return err
		}
		note := ""
		if method.Adaptive() {
			note = faint.Render("adaptive")
		}
		fmt.Printf("  %-16s %s\n", name, note)
	}
	fmt.Println(title.Render("force models"))
	for _, name := range registry.ListModels() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.Groups()
	if len(args) == 1 {
		groups = args[:1]
	}
	for _, group := range groups {
		names := config.ListPresets(group)
		if len(names) == 0 {
			fmt.Printf("no presets for group: %s\n", group)
			continue
		}
		fmt.Println(title.Render(group))
		for _, name := range names {
			p := config.GetPreset(group, name)
			fmt.Printf("  %s/%-12s %s\n", group, name, faint.Render(fmt.Sprintf("%s %s dt=%g", p.Integrator, strings.Join(p.Models, "+"), p.Dt)))
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tINTEG\tMODELS\tSTEPS\tEVENTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Name,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Integrator,
			run.Models,
			run.Steps,
			run.Events,
		)
	}
	return w.Flush()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.Load(id); err != nil {
		return err
	}
	if err := st.Delete(id); err != nil {
		return err
	}
	fmt.Printf("deleted run %d\n", id)
	return nil
}

var channelNames = []string{"alt", "radius", "speed", "rx", "ry", "rz", "vx", "vy", "vz", "w", "qnorm", "mass"}

func channelValues(samples []sim.Sample, name string) ([]float64, string, error) {
	var pick func(s sim.Sample) float64
	caption := name
	switch name {
	case "alt":
		caption = "altitude (km)"
		pick = func(s sim.Sample) float64 {
			_, _, h, err := models.Geodetic(s.System.R)
			if err != nil {
				return 0
			}
			return h / 1e3
		}
	case "radius":
		caption = "radius (km)"
		pick = func(s sim.Sample) float64 { return s.System.R.Norm() / 1e3 }
	case "speed":
		caption = "speed (m/s)"
		pick = func(s sim.Sample) float64 { return s.System.V.Norm() }
	case "rx", "ry", "rz":
		i := int(name[1] - 'x')
		pick = func(s sim.Sample) float64 { return s.System.R[i] }
	case "vx", "vy", "vz":
		i := int(name[1] - 'x')
		pick = func(s sim.Sample) float64 { return s.System.V[i] }
	case "w":
		caption = "angular rate (rad/s)"
		pick = func(s sim.Sample) float64 { return s.System.W.Norm() }
	case "qnorm":
		caption = "|q| - 1"
		pick = func(s sim.Sample) float64 { return s.System.Q.Norm() - 1 }
	case "mass":
		caption = "mass (kg)"
		pick = func(s sim.Sample) float64 { return s.Mass }
	default:
		return nil, "", fmt.Errorf("unknown channel %q (available: %s)", name, strings.Join(channelNames, ", "))
	}

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = pick(s)
	}
	return data, caption, nil
}

func loadRun(arg string) (*storage.Run, []sim.Sample, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	run, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(id)
	if err != nil {
		return nil, nil, err
	}
	return run, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	data, caption, err := channelValues(samples, channel)
	if err != nil {
		return err
	}

	fmt.Printf("run: %d\n", run.ID)
	fmt.Printf("name: %s\n", run.Name)
	fmt.Printf("samples: %d\n\n", len(samples))

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 4 {
		return fmt.Errorf("run %d has %d samples, need at least 4", run.ID, len(samples))
	}
	cfg, err := run.Scenario()
	if err != nil {
		return err
	}

	times := make([]float64, len(samples))
	rz := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.T
		rz[i] = s.System.R[2]
	}

	fmt.Printf("run: %d (%s)\n", run.ID, run.Name)
	nodes := analysis.Crossings(times, rz, 0)
	fmt.Printf("ascending nodes: %d\n", len(nodes))
	if period, err := analysis.MeanSpacing(nodes); err == nil {
		fmt.Printf("nodal period: %.1fs\n", period)
	}

	data, caption, err := channelValues(samples, spectrum)
	if err != nil {
		return err
	}
	interval := cfg.Sample
	if interval <= 0 {
		interval = cfg.Dt
	}
	period, err := analysis.DominantPeriod(data, interval)
	if err != nil {
		fmt.Printf("%s: %v\n", caption, err)
		return nil
	}
	fmt.Printf("%s dominant period: %.1fs\n", caption, period)
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	xs, xCaption, err := channelValues(samples, xChannel)
	if err != nil {
		return err
	}
	ys, yCaption, err := channelValues(samples, yChannel)
	if err != nil {
		return err
	}
	portrait := analysis.NewPortrait(xCaption, xs, yCaption, ys)
	if len(portrait.Points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %d (%s)  %s vs %s\n\n", run.ID, run.Name, yCaption, xCaption)
	fmt.Print(portrait.ASCII(70, 24))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w := os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	switch format {
	case "json":
		cfg, err := run.Scenario()
		if err != nil {
			return err
		}
		metrics, err := run.MetricValues()
		if err != nil {
			return err
		}
		result := &sim.Result{
			Samples:  samples,
			Metrics:  metrics,
			Steps:    run.Steps,
			Rejected: run.Rejected,
			Events:   run.Events,
		}
		return store.WriteJSON(w, cfg, result)
	case "csv":
		return store.WriteCSV(w, samples)
	case "lp":
		return store.WriteLineProtocol(w, run.Name, samples)
	case "svg":
		return store.WriteSVG(w, samples)
	default:
		return fmt.Errorf("unknown format %q (json, csv, lp, svg)", format)
	}
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	fmt.Printf("comparing on %s for %.0fs with dt=%g (reference %s)\n\n", title.Render(appCfg.Name), appCfg.Duration, appCfg.Dt, reference)

	rows, err := automation.Compare(cmd.Context(), appCfg, args, reference, registry, logging.Component(logger, "compare"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tREJECTED\tPOS_ERR (m)\tENERGY_DRIFT")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3e\t%.3e\n", r.Integrator, r.Steps, r.Rejected, r.PositionError, r.EnergyDrift)
	}
	return w.Flush()
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	sweep := &automation.ParameterSweep{
		Base:     appCfg,
		Param:    param,
		Min:      minVal,
		Max:      maxVal,
		NumSteps: numSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, registry, logging.Component(logger, "sweep"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tENERGY_DRIFT\tMIN_ALT (km)\tFINAL_R (km)\n", strings.ToUpper(param))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%.3e\t%.1f\t%.1f\n", r.ParamValue, r.Steps, r.EnergyDrift, r.MinAltitude/1e3, r.Final.System.R.Norm()/1e3)
	}
	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	if !cmd.Flags().Changed("seed") {
		seed = appCfg.Seed
	}
	mc := &automation.MonteCarloConfig{
		Base:          appCfg,
		PositionSigma: posSigma,
		VelocitySigma: velSigma,
		NumTrials:     trials,
		Seed:          seed,
	}

	fmt.Printf("running %d trials of %s...\n", trials, title.Render(appCfg.Name))
	start := time.Now()
	results := automation.RunMonteCarlo(cmd.Context(), mc, registry, logging.Component(logger, "montecarlo"))
	s := automation.Summarize(results)

	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Printf("trials:       %d (stable %d, failed %d)\n", s.Trials, s.Stable, s.Failed)
	fmt.Printf("final radius: %.3f ± %.3f km\n", s.MeanRadius/1e3, s.StdRadius/1e3)
	fmt.Printf("  5%%/50%%/95%%: %.3f / %.3f / %.3f km\n", s.Quantiles[0]/1e3, s.Quantiles[1]/1e3, s.Quantiles[2]/1e3)
	fmt.Printf("min altitude: %.3f ± %.3f km\n", s.MeanMinAlt/1e3, s.StdMinAlt/1e3)

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  trial %d failed: %v\n", r.TrialID, r.Err)
		}
	}
	return nil
}

func runScenarioFile(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	fmt.Printf("scenario %s: %s\n", title.Render(scenario.Name), scenario.Description)

	results, runErr := automation.RunScenario(cmd.Context(), scenario, registry, logging.Component(logger, "scenario"))

	var st *storage.Store
	if save && len(results) > 0 {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}
	for i, r := range results {
		fmt.Printf("\n[%d] %s (%s)\n", i+1, title.Render(r.Name), r.Config.Integrator)
		if st != nil {
			id, err := st.Save(r.Config, r.Result)
			if err != nil {
				return err
			}
			fmt.Printf("run id: %d\n", id)
		}
		printResult(r.Result)
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	exp, err := experiment.New(appCfg, experiment.NewRegistry(), zerolog.Nop())
	if err != nil {
		return err
	}
	return tui.RunLive(cmd.Context(), exp)
}

func writeSnapshot(cmd *cobra.Command, args []string) error {
	exp, err := experiment.New(appCfg, experiment.NewRegistry(), logging.Component(logger, "propagator"))
	if err != nil {
		return err
	}
	if !initial {
		if _, err := exp.Run(cmd.Context()); err != nil {
			return err
		}
	}

	data, err := exp.Vehicle().MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), args[0])
	return nil
}

func inspectSnapshot(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var v vehicle.Vehicle
	if err := v.UnmarshalBinary(data); err != nil {
		return err
	}

	sys := v.State.System
	fmt.Printf("%s  objects=%d  step=%gs\n", title.Render(v.Config.System.Symbol.String()), v.Size, v.Config.Clock.Step)
	fmt.Printf("clock: n=%d t=%.3f\n", v.State.Clock.N, v.State.Clock.T)
	fmt.Printf("r=%v\nq=%v\nv=%v\nw=%v\n", sys.R, sys.Q, sys.V, sys.W)
	fmt.Printf("mass=%.3fkg center=%v\n\n", v.Output.Mass, v.Output.Center)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OBJ\tSYMBOL\tMASS\tINERTIA\tPOSITION\tCHARGE")
	for i := 0; i < v.Size; i++ {
		o := v.State.Objects[i]
		c := v.Config.Objects[i]
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%v\t%v\t%g\n", i, c.Symbol, o.Mass, o.Inertia, c.Position, v.EM.Objects[i].Charge)
	}
	return w.Flush()
}
