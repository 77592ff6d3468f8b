package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   *slog.Logger

	// scene selection
	preset     string
	configFile string

	// run settings
	dt          float64
	frames      int
	sampleEvery int
	validate    bool

	// solver overrides
	xCells     int
	yCells     int
	iterations int
	omega      float64
	tolerance  float64
	inflow     float64
	gravity    float64
	maxCFL     float64
	cflMode    string
	obstacle   string
	obstacleX  float64
	obstacleY  float64
	obstacleR  float64

	// live view
	viewName   string
	recordPath string
)

// main registers the fluidsim commands. Without a subcommand it opens the
// preset picker.
func main() {
	rootCmd := &cobra.Command{
		Use:   "fluidsim",
		Short: "incompressible fluid solver on a MAC grid",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunPicker()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fluidsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [mode]",
		Short: "run a scene headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "frames between samples")
	runCmd.Flags().BoolVar(&validate, "validate", true, "stop when the field stops being finite")

	liveCmd := &cobra.Command{
		Use:   "live [mode]",
		Short: "run a scene with live terminal visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&viewName, "view", "blend", "initial view (dye, pressure, speed, blend)")
	liveCmd.Flags().StringVar(&recordPath, "record", "fluidsim.gif", "GIF written when recording stops")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSeries, "series", "all", "series to plot (divergence, mass, speed, dt, pressure, all)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series or final fields to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&exportFields, "fields", false, "export the final field dump instead of the series")
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the final field and its streamlines as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().BoolVar(&svgFill, "fill", true, "colour fluid cells")
	exportSVGCmd.Flags().StringVar(&svgView, "view", "dye", "field used for the fill")
	exportSVGCmd.Flags().Float64Var(&svgScale, "scale", 6, "pixels per cell")
	exportSVGCmd.Flags().IntVar(&seedSpacing, "seed-spacing", 5, "cells between streamline seeds")
	exportSVGCmd.Flags().IntVar(&segments, "segments", 100, "segments per streamline")
	exportSVGCmd.Flags().Float64Var(&stepTime, "step-time", 0.01, "integration time per segment")

	presetsCmd := &cobra.Command{
		Use:   "presets [mode]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [mode]",
		Short: "measure solver throughput across grid sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchSolver,
	}
	addSceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchFrames, "frames", 60, "frames per measurement")
	benchCmd.Flags().IntSliceVar(&benchIters, "sweeps", []int{10, 20, 40, 80}, "projection sweeps to measure")

	tuneCmd := &cobra.Command{
		Use:   "tune [mode]",
		Short: "grid search projection sweeps and over-relaxation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneSolver,
	}
	addSceneFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&tuneFrames, "frames", 120, "frames per candidate")
	tuneCmd.Flags().IntVar(&tuneSampleEvery, "sample-every", 5, "frames between residual samples")
	tuneCmd.Flags().IntSliceVar(&tuneIters, "sweeps", []int{10, 20, 40, 80}, "projection sweeps to try")
	tuneCmd.Flags().Float64SliceVar(&tuneOmegas, "omegas", []float64{1.0, 1.5, 1.7, 1.9}, "over-relaxation factors to try")
	tuneCmd.Flags().IntVar(&tuneTop, "top", 5, "candidates to print")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario and store the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [mode]",
		Short: "run a scene across a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "inflow", "parameter to vary (inflow, gravity, density, omega, iterations, tolerance, max_cfl, dt)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 10, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 100, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&sweepFrames, "frames", 120, "frames per value")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd, tuneCmd, scenarioCmd, sweepCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func addSceneFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "frame time step")
	f.IntVar(&xCells, "x-cells", 0, "cells along x including walls")
	f.IntVar(&yCells, "y-cells", 0, "cells along y including walls")
	f.IntVar(&iterations, "iterations", 0, "projection sweeps per pass")
	f.Float64Var(&omega, "omega", 0, "over-relaxation factor in [1,2)")
	f.Float64Var(&tolerance, "tolerance", 0, "stop sweeping once max |div| drops below this")
	f.Float64Var(&inflow, "inflow", 0, "wind tunnel inflow speed")
	f.Float64Var(&gravity, "gravity", 0, "gravity along v")
	f.Float64Var(&maxCFL, "max-cfl", 0, "largest allowed CFL number")
	f.StringVar(&cflMode, "cfl-mode", "", "CFL estimate (max, sum)")
	f.StringVar(&obstacle, "obstacle", "", "replace the obstacle (none, circle); other kinds come from presets or config files")
	f.Float64Var(&obstacleX, "obstacle-x", 0, "obstacle anchor column")
	f.Float64Var(&obstacleY, "obstacle-y", 0, "obstacle anchor row")
	f.Float64Var(&obstacleR, "obstacle-radius", 0, "obstacle radius in cells")
}

// loadScene resolves the configuration from defaults, a preset, a config file
// and finally the flags that were set explicitly. It also returns a short
// scene name used for run ids.
func loadScene(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	mode := forcing.ModeWindTunnel
	if len(args) > 0 {
		m, err := forcing.ParseMode(args[0])
		if err != nil {
			return nil, "", err
		}
		mode = m
	}

	cfg := config.DefaultConfig()
	cfg.Mode = mode.String()
	scene := mode.String()

	if preset != "" {
		p := config.GetPreset(mode.String(), preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(mode.String()))
		}
		cfg, scene = p, preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			// an unparsable file mode is reported by Validate below
			if fileMode, err := forcing.ParseMode(loaded.Mode); err == nil && fileMode != mode {
				return nil, "", fmt.Errorf("mode %s conflicts with %s in %s", mode, fileMode, configFile)
			}
		}
		cfg = loaded
		scene = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, scene, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Name() == "run" {
		if f.Changed("frames") {
			cfg.Frames = frames
		}
		if f.Changed("sample-every") {
			cfg.SampleEvery = sampleEvery
		}
	}
	if f.Changed("x-cells") {
		cfg.Grid.Width = cfg.Grid.Width / float64(cfg.Grid.XCells) * float64(xCells)
		cfg.Grid.XCells = xCells
	}
	if f.Changed("y-cells") {
		cfg.Grid.Height = cfg.Grid.Height / float64(cfg.Grid.YCells) * float64(yCells)
		cfg.Grid.YCells = yCells
	}
	if f.Changed("iterations") {
		cfg.Fluid.Iterations = iterations
	}
	if f.Changed("omega") {
		cfg.Fluid.OverRelaxation = omega
	}
	if f.Changed("tolerance") {
		cfg.Fluid.Tolerance = tolerance
	}
	if f.Changed("inflow") {
		cfg.InflowSpeed = inflow
	}
	if f.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if f.Changed("max-cfl") {
		cfg.Fluid.MaxCFL = maxCFL
	}
	if f.Changed("cfl-mode") {
		cfg.Fluid.CFLMode = cflMode
	}
	if f.Changed("obstacle") {
		cfg.Obstacle = grid.ObstacleSpec{Kind: obstacle}
	}
	if f.Changed("obstacle-x") {
		cfg.Obstacle.X = obstacleX
	}
	if f.Changed("obstacle-y") {
		cfg.Obstacle.Y = obstacleY
	}
	if f.Changed("obstacle-radius") {
		cfg.Obstacle.Radius = obstacleR
	}
}
