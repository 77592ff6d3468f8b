package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/automation"
	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/optim"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/solver"
	"github.com/san-kum/fluidsim/internal/storage"
	"github.com/san-kum/fluidsim/internal/streamline"
	"github.com/san-kum/fluidsim/internal/viz"
)

var (
	plotSeries   string
	exportFields bool
	outPath      string

	svgFill     bool
	svgView     string
	svgScale    float64
	seedSpacing int
	segments    int
	stepTime    float64

	benchFrames int
	benchIters  []int

	tuneFrames      int
	tuneSampleEvery int
	tuneIters       []int
	tuneOmegas      []float64
	tuneTop         int

	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepFrames int
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	sc, err := cfg.SolverConfig()
	if err != nil {
		return err
	}
	s, err := solver.New(sc)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	simulator := sim.New(s)
	simulator.SetLogger(logger)
	simulator.AddMetric(metrics.NewDivergence())
	simulator.AddMetric(metrics.NewMassDrift())
	simulator.AddMetric(metrics.NewPeakSpeed())
	simulator.AddMetric(metrics.NewThrottle())
	simulator.AddObserver(sim.ObserverFunc(func(_ *grid.Grid, st solver.Stats) {
		if st.Frame%cfg.SampleEvery == 0 {
			logger.Debug("progress", "frame", st.Frame, "of", cfg.Frames, "time", st.Time, "dt", st.Dt)
		}
	}))

	fmt.Printf("running %s (%s, %dx%d)...\n", scene, cfg.Mode, cfg.Grid.XCells, cfg.Grid.YCells)
	result, runErr := simulator.Run(cmd.Context(), sim.Config{
		Dt:            cfg.Dt,
		Frames:        cfg.Frames,
		SampleEvery:   cfg.SampleEvery,
		ValidateState: validate,
	})
	if result == nil {
		return runErr
	}

	// partial runs are stored too so a blow-up can be inspected
	runID, err := st.Save(scene, cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (t=%.3f)\n", result.StepsTaken, result.SimTime)
	fmt.Println("\nmetrics:")
	for _, name := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	if runErr != nil {
		var stepErr *sim.StepError
		if errors.As(runErr, &stepErr) {
			fmt.Printf("\nstopped at frame %d\n", stepErr.Frame)
		}
		return runErr
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	view, err := viz.ParseView(viewName)
	if err != nil {
		return err
	}
	sc, err := cfg.SolverConfig()
	if err != nil {
		return err
	}
	s, err := solver.New(sc)
	if err != nil {
		return err
	}

	m := viz.NewModel(s, cfg.Dt, scene)
	m.SetView(view)
	m.SetRecordPath(recordPath)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
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
	fmt.Fprintln(w, "ID\tMODE\tTIME\tGRID\tFRAMES\tDT\tSWEEPS\tOMEGA\tMAX DIV")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%.4f\t%d\t%.2f\t%.3g\n",
			run.ID,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.XCells, run.YCells,
			run.Steps,
			run.Dt,
			run.Iterations,
			run.OverRelaxation,
			run.Metrics["max_divergence"],
		)
	}

	return w.Flush()
}

// seriesColumns are the plottable sample columns in display order.
var seriesColumns = []struct {
	name    string
	caption string
	pick    func(sim.Sample) float64
}{
	{"divergence", "max |divergence| after projection", func(s sim.Sample) float64 { return s.MaxDivergence }},
	{"mass", "total dye", func(s sim.Sample) float64 { return s.DyeMass }},
	{"speed", "max speed", func(s sim.Sample) float64 { return s.MaxSpeed }},
	{"dt", "frame dt", func(s sim.Sample) float64 { return s.Dt }},
	{"pressure", "max pressure", func(s sim.Sample) float64 { return s.PressureMax }},
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s (%s)\n", meta.Scene, meta.Mode)
	fmt.Printf("samples: %d\n\n", len(samples))

	plotted := 0
	for _, col := range seriesColumns {
		if plotSeries != "all" && !strings.EqualFold(plotSeries, col.name) {
			continue
		}
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = col.pick(s)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col.caption),
		)
		fmt.Println(graph)
		d := metrics.Describe(data)
		fmt.Printf("  mean %.4g  std %.4g  min %.4g  max %.4g\n\n", d.Mean, d.StdDev, d.Min, d.Max)
		plotted++
	}

	if plotted == 0 {
		names := make([]string, len(seriesColumns))
		for i, col := range seriesColumns {
			names[i] = col.name
		}
		return fmt.Errorf("unknown series %q (available: %s, all)", plotSeries, strings.Join(names, ", "))
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	return withOutput(outPath, func(w io.Writer) error {
		if exportFields {
			records, err := st.LoadFields(runID)
			if err != nil {
				return err
			}
			return storage.WriteFieldsCSV(w, records)
		}
		samples, err := st.LoadSeries(runID)
		if err != nil {
			return err
		}
		return storage.WriteSeriesCSV(w, samples)
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := storage.NewExportData(meta, samples)
	if outPath != "" {
		if err := storage.ExportJSON(outPath, data); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", outPath)
		return nil
	}
	return storage.WriteJSON(os.Stdout, data)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	view, err := viz.ParseView(svgView)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	g, err := st.LoadGrid(runID)
	if err != nil {
		return err
	}

	lines := streamline.Trace(g, streamline.Options{
		SeedSpacing: seedSpacing,
		Segments:    segments,
		StepTime:    stepTime,
	})

	opts := export.DefaultSVGOptions()
	opts.Fill = svgFill
	opts.View = view
	opts.Scale = svgScale

	path := outPath
	if path == "" {
		path = runID + ".svg"
	}
	if err := export.WriteSVG(path, g, lines, opts); err != nil {
		return err
	}
	fmt.Printf("exported %d streamlines to %s\n", len(lines), path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	modes := config.ListModes()
	if len(args) > 0 {
		m, err := forcing.ParseMode(args[0])
		if err != nil {
			return err
		}
		modes = []string{m.String()}
	}

	for _, mode := range modes {
		fmt.Printf("presets for %s:\n", mode)
		for _, p := range config.ListPresets(mode) {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func benchSolver(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	if benchFrames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", benchFrames)
	}

	fmt.Printf("benchmarking %s (%dx%d)\n\n", scene, cfg.Grid.XCells, cfg.Grid.YCells)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SWEEPS\tFRAMES\tTIME\tFRAMES/SEC\tCELL SWEEPS/SEC\tMEAN DIV")

	cells := float64((cfg.Grid.XCells - 2) * (cfg.Grid.YCells - 2))
	for _, iters := range benchIters {
		c := cfg.Clone()
		c.Fluid.Iterations = iters
		sc, err := c.SolverConfig()
		if err != nil {
			return err
		}
		s, err := solver.New(sc)
		if err != nil {
			return err
		}

		simulator := sim.New(s)
		result, err := simulator.Run(cmd.Context(), sim.Config{Dt: c.Dt, Frames: benchFrames, SampleEvery: 1})
		if err != nil {
			return err
		}

		secs := result.Elapsed.Seconds()
		fps := float64(result.StepsTaken) / secs
		// two projections per frame
		sweeps := fps * 2 * float64(iters) * cells
		div := metrics.Describe(result.Series(func(s sim.Sample) float64 { return s.MaxDivergence }))

		fmt.Fprintf(w, "%d\t%d\t%v\t%.1f\t%.3g\t%.3g\n",
			iters,
			result.StepsTaken,
			result.Elapsed.Round(time.Millisecond),
			fps,
			sweeps,
			div.Mean,
		)
	}

	return w.Flush()
}

func tuneSolver(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	sc, err := cfg.SolverConfig()
	if err != nil {
		return err
	}

	gs := optim.NewGridSearch(tuneIters, tuneOmegas)
	gs.SetLogger(logger)

	fmt.Printf("tuning %s over %d candidates...\n\n", scene, len(gs.Candidates()))
	scores, err := gs.Search(cmd.Context(), sc, sim.Config{
		Dt:          cfg.Dt,
		Frames:      tuneFrames,
		SampleEvery: tuneSampleEvery,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSWEEPS\tOMEGA\tMEAN DIV\tPEAK DIV\tSCORE")
	for i, s := range scores {
		if i >= tuneTop {
			break
		}
		if s.Err != nil {
			fmt.Fprintf(w, "%d\t%d\t%.2f\t-\t-\t%v\n", i+1, s.Iterations, s.OverRelaxation, s.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%.3g\t%.3g\t%.3g\n",
			i+1, s.Iterations, s.OverRelaxation, s.Residual, s.PeakResidual, s.Score)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	outcomes, err := automation.RunScenario(cmd.Context(), scenario, st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSCENE\tRUN ID\tFRAMES\tMAX DIV\tPEAK SPEED")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.3g\t%.3g\n",
			o.Step, o.Scene, o.RunID, o.Result.StepsTaken,
			o.Result.Metrics["max_divergence"], o.Result.Metrics["peak_speed"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	cfg.Frames = sweepFrames

	sweep := &automation.ParameterSweep{
		Base:     cfg,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
	}

	fmt.Printf("sweeping %s on %s\n\n", sweepParam, scene)
	results, err := automation.RunSweep(cmd.Context(), sweep, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFRAMES\tMAX DIV\tPEAK SPEED\tMASS DRIFT\tSTABLE\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%d\t%.3g\t%.3g\t%.3g\t%s\n",
			r.ParamValue, r.Steps, r.MaxDivergence, r.PeakSpeed, r.MassDrift, yesNo(!r.Unstable))
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// withOutput hands fn stdout, or a freshly created file when path is set.
func withOutput(path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported to %s\n", path)
	return nil
}
