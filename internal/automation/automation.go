// Package automation runs scripted sequences of scenes and one-parameter
// sweeps without the live view.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/solver"
	"github.com/san-kum/fluidsim/internal/storage"
)

// Scenario is a scripted list of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep selects a scene by preset or config file and overrides a few
// of its settings. Params uses the names accepted by ApplyParam.
type ScenarioStep struct {
	Mode   string             `yaml:"mode"`
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Frames int                `yaml:"frames"`
	Dt     float64            `yaml:"dt"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

// Outcome is one finished scenario step. RunID is empty when nothing was stored.
type Outcome struct {
	Step   int
	Scene  string
	RunID  string
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Resolve builds the validated configuration for the step and the scene name
// its run is stored under.
func (s ScenarioStep) Resolve() (*config.Config, string, error) {
	var cfg *config.Config
	scene := s.Preset

	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
		if scene == "" {
			scene = "custom"
		}
	case s.Preset != "":
		mode, err := forcing.ParseMode(s.Mode)
		if err != nil {
			return nil, "", err
		}
		cfg = config.GetPreset(mode.String(), s.Preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets(mode.String()))
		}
	default:
		mode, err := forcing.ParseMode(s.Mode)
		if err != nil {
			return nil, "", err
		}
		cfg = config.DefaultConfig()
		cfg.Mode = mode.String()
		scene = mode.String()
	}

	if s.Frames > 0 {
		cfg.Frames = s.Frames
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	for name, v := range s.Params {
		if err := ApplyParam(cfg, name, v); err != nil {
			return nil, "", err
		}
	}
	if s.SaveAs != "" {
		scene = s.SaveAs
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, scene, nil
}

// ApplyParam sets one named scalar on cfg.
func ApplyParam(cfg *config.Config, name string, v float64) error {
	switch strings.ToLower(name) {
	case "inflow":
		cfg.InflowSpeed = v
	case "gravity":
		cfg.Gravity = v
	case "density":
		cfg.Fluid.Density = v
	case "omega", "over_relaxation":
		cfg.Fluid.OverRelaxation = v
	case "iterations":
		cfg.Fluid.Iterations = int(v)
	case "tolerance":
		cfg.Fluid.Tolerance = v
	case "max_cfl":
		cfg.Fluid.MaxCFL = v
	case "dt":
		cfg.Dt = v
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// RunScenario executes the steps in order. With a nil store nothing is saved.
// The first failing step stops the scenario; outcomes so far are returned.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, logger *slog.Logger) ([]Outcome, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	outcomes := make([]Outcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, scene, err := step.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "scene", scene)

		result, err := runConfig(ctx, cfg, logger)
		if err != nil {
			return outcomes, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := Outcome{Step: i + 1, Scene: scene, Result: result}
		if store != nil {
			id, err := store.Save(scene, cfg, result)
			if err != nil {
				return outcomes, fmt.Errorf("step %d save: %w", i+1, err)
			}
			out.RunID = id
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

func runConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sim.Result, error) {
	sc, err := cfg.SolverConfig()
	if err != nil {
		return nil, err
	}
	s, err := solver.New(sc)
	if err != nil {
		return nil, err
	}

	simulator := sim.New(s)
	simulator.SetLogger(logger)
	simulator.AddMetric(metrics.NewDivergence())
	simulator.AddMetric(metrics.NewMassDrift())
	simulator.AddMetric(metrics.NewPeakSpeed())
	simulator.AddMetric(metrics.NewThrottle())

	return simulator.Run(ctx, sim.Config{
		Dt:            cfg.Dt,
		Frames:        cfg.Frames,
		SampleEvery:   cfg.SampleEvery,
		ValidateState: true,
	})
}

// ParameterSweep runs one scene at NumSteps evenly spaced values of Param.
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min      float64
	Max      float64
	NumSteps int
}

type SweepResult struct {
	ParamValue    float64
	MaxDivergence float64
	PeakSpeed     float64
	MassDrift     float64
	Steps         int
	// Unstable is set when the field stopped being finite before the last frame.
	Unstable bool
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.Base == nil {
		return nil, fmt.Errorf("sweep needs a base configuration")
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.Min + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := ApplyParam(cfg, sweep.Param, paramVal); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, paramVal, err)
		}

		result, err := runConfig(ctx, cfg, logger)
		unstable := false
		if err != nil {
			if ctx.Err() != nil || result == nil {
				return results, err
			}
			unstable = true
		}

		results = append(results, SweepResult{
			ParamValue:    paramVal,
			MaxDivergence: result.Metrics["max_divergence"],
			PeakSpeed:     result.Metrics["peak_speed"],
			MassDrift:     result.Metrics["mass_drift"],
			Steps:         result.StepsTaken,
			Unstable:      unstable,
		})
		logger.Info("sweep point", "param", sweep.Param, "value", paramVal, "steps", result.StepsTaken)
	}

	return results, nil
}
