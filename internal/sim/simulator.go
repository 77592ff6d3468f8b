// Package sim drives a solver for a fixed number of frames, sampling metrics
// and notifying observers between steps.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/solver"
)

type Simulator struct {
	solver    *solver.Solver
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func New(s *solver.Solver) *Simulator {
	return &Simulator{
		solver:    s,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.New(slog.DiscardHandler),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Simulator) Solver() *solver.Solver { return s.solver }

// Run steps the solver cfg.Frames times. The context is checked between
// frames; a cancelled run returns the partial result with the context error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]Sample, 0, cfg.Frames/cfg.SampleEvery+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	g := s.solver.Grid()
	s.logger.Info("run started",
		"frames", cfg.Frames,
		"dt", cfg.Dt,
		"grid", fmt.Sprintf("%dx%d", g.NumX, g.NumY),
		"mode", s.solver.Config().Mode.String(),
	)
	start := time.Now()
	result.Samples = append(result.Samples, s.sample(metrics.Summarize(g)))

	var runErr error
	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, start)
			return result, ctx.Err()
		default:
		}

		s.solver.Step(cfg.Dt)
		st := s.solver.Stats()
		g = s.solver.Grid()
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(g, st)
		}
		for _, obs := range s.observers {
			obs.OnStep(g, st)
		}

		if cfg.ValidateState && !finite(st.Second.MaxResidual) {
			s.logger.Warn("field diverged", "frame", st.Frame, "time", st.Time)
			runErr = &StepError{Frame: st.Frame, Time: st.Time, Err: ErrUnstable}
			break
		}

		if st.Frame%cfg.SampleEvery == 0 {
			sum := metrics.Summarize(g)
			result.Samples = append(result.Samples, s.sample(sum))
			// dye and pressure can blow up while the residual stays finite
			if cfg.ValidateState && !sum.Finite() {
				s.logger.Warn("field not finite", "frame", st.Frame, "time", st.Time)
				runErr = &StepError{Frame: st.Frame, Time: st.Time, Err: ErrUnstable}
				break
			}
		}
	}

	s.finish(result, start)
	s.logger.Info("run finished",
		"steps", result.StepsTaken,
		"sim_time", result.SimTime,
		"elapsed", result.Elapsed,
	)
	return result, runErr
}

func (s *Simulator) finish(result *Result, start time.Time) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.SimTime = s.solver.Stats().Time
	result.Elapsed = time.Since(start)
	result.Final = s.solver.Snapshot()
}

func (s *Simulator) sample(sum metrics.Summary) Sample {
	st := s.solver.Stats()
	return Sample{
		Frame:          st.Frame,
		Time:           st.Time,
		Dt:             st.Dt,
		Iterations:     st.Second.Iterations,
		MaxDivergence:  sum.MaxDivergence,
		MeanDivergence: sum.MeanDivergence,
		DyeMass:        sum.DyeMass,
		MaxSpeed:       sum.MaxSpeed,
		PressureMin:    sum.PressureMin,
		PressureMax:    sum.PressureMax,
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 || !finite(cfg.Dt) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", cfg.Frames)
	}
	if cfg.SampleEvery <= 0 {
		return fmt.Errorf("sample interval must be positive, got %d", cfg.SampleEvery)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
