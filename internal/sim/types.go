package sim

import (
	"time"

	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/solver"
)

type Metric interface {
	Name() string
	Observe(g *grid.Grid, st solver.Stats)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(g *grid.Grid, st solver.Stats)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(g *grid.Grid, st solver.Stats)

func (f ObserverFunc) OnStep(g *grid.Grid, st solver.Stats) { f(g, st) }

type Config struct {
	Dt          float64
	Frames      int
	SampleEvery int
	// ValidateState stops the run as soon as a projection residual stops
	// being finite.
	ValidateState bool
}

// Sample is one row of a run's time series.
type Sample struct {
	Frame          int     `csv:"frame" json:"frame"`
	Time           float64 `csv:"time" json:"time"`
	Dt             float64 `csv:"dt" json:"dt"`
	Iterations     int     `csv:"iterations" json:"iterations"`
	MaxDivergence  float64 `csv:"max_divergence" json:"max_divergence"`
	MeanDivergence float64 `csv:"mean_divergence" json:"mean_divergence"`
	DyeMass        float64 `csv:"dye_mass" json:"dye_mass"`
	MaxSpeed       float64 `csv:"max_speed" json:"max_speed"`
	PressureMin    float64 `csv:"pressure_min" json:"pressure_min"`
	PressureMax    float64 `csv:"pressure_max" json:"pressure_max"`
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	SimTime    float64
	Elapsed    time.Duration
	Final      *grid.Snapshot
}

// Series extracts one column of the samples.
func (r *Result) Series(pick func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = pick(s)
	}
	return out
}
