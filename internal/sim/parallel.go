package sim

import (
	"context"
	"log/slog"
	"sync"

	"github.com/san-kum/fluidsim/internal/solver"
)

// Ensemble runs several solver configurations concurrently. Every member gets
// its own solver and its own metric instances.
type Ensemble struct {
	configs    []solver.Config
	newMetrics func() []Metric
	logger     *slog.Logger
}

func NewEnsemble(configs []solver.Config, newMetrics func() []Metric) *Ensemble {
	return &Ensemble{configs: configs, newMetrics: newMetrics, logger: slog.New(slog.DiscardHandler)}
}

func (e *Ensemble) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Run returns one result per configuration, in order. The first error wins.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.configs))
	errs := make([]error, len(e.configs))

	var wg sync.WaitGroup
	for i := range e.configs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := solver.New(e.configs[idx])
			if err != nil {
				errs[idx] = err
				return
			}
			sim := New(s)
			sim.SetLogger(e.logger.With("member", idx))
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					sim.AddMetric(m)
				}
			}

			results[idx], errs[idx] = sim.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
