// Package optim searches projection settings for the cheapest accurate solve.
package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/solver"
)

type Candidate struct {
	Iterations     int
	OverRelaxation float64
}

func (c Candidate) String() string {
	return fmt.Sprintf("iters=%d omega=%.2f", c.Iterations, c.OverRelaxation)
}

// Score is one evaluated candidate. Lower Score is better: it is the mean
// residual divergence weighted by the sweeps spent per projection.
type Score struct {
	Candidate
	Residual     float64
	PeakResidual float64
	Score        float64
	Err          error
}

type GridSearch struct {
	iterations []int
	omegas     []float64
	logger     *slog.Logger
}

func NewGridSearch(iterations []int, omegas []float64) *GridSearch {
	return &GridSearch{iterations: iterations, omegas: omegas, logger: slog.New(slog.DiscardHandler)}
}

func (g *GridSearch) SetLogger(l *slog.Logger) {
	if l != nil {
		g.logger = l
	}
}

func (g *GridSearch) Candidates() []Candidate {
	out := make([]Candidate, 0, len(g.iterations)*len(g.omegas))
	for _, it := range g.iterations {
		for _, w := range g.omegas {
			out = append(out, Candidate{Iterations: it, OverRelaxation: w})
		}
	}
	return out
}

// Search runs every valid candidate on base concurrently and returns all
// scores sorted best first. Candidates the solver rejects are reported with
// Err set and an infinite score.
func (g *GridSearch) Search(ctx context.Context, base solver.Config, run sim.Config) ([]Score, error) {
	candidates := g.Candidates()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty search space")
	}

	scores := make([]Score, len(candidates))
	var configs []solver.Config
	var members []int
	for i, c := range candidates {
		scores[i] = Score{Candidate: c, Score: math.Inf(1), Residual: math.Inf(1)}
		cfg := base
		cfg.Iterations = c.Iterations
		cfg.OverRelaxation = c.OverRelaxation
		if err := cfg.Validate(); err != nil {
			scores[i].Err = err
			continue
		}
		configs = append(configs, cfg)
		members = append(members, i)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no valid candidates: %w", scores[0].Err)
	}

	ens := sim.NewEnsemble(configs, func() []sim.Metric {
		return []sim.Metric{metrics.NewDivergence()}
	})
	ens.SetLogger(g.logger)
	results, err := ens.Run(ctx, run)
	if err != nil {
		return nil, err
	}

	for k, res := range results {
		s := &scores[members[k]]
		residuals := res.Series(func(smp sim.Sample) float64 { return smp.MaxDivergence })
		if len(residuals) > 1 {
			residuals = residuals[1:]
		}
		s.Residual = metrics.Describe(residuals).Mean
		s.PeakResidual = res.Metrics["max_divergence"]
		if math.IsNaN(s.Residual) || math.IsInf(s.Residual, 0) {
			s.Residual = math.Inf(1)
		}
		s.Score = s.Residual * float64(s.Iterations)
		g.logger.Debug("candidate scored", "candidate", s.Candidate.String(), "residual", s.Residual, "score", s.Score)
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score < scores[j].Score })
	return scores, nil
}
