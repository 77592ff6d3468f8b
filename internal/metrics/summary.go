// Package metrics measures the health of a running fluid: residual divergence,
// dye mass, speed and pressure range.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fluidsim/internal/grid"
)

// Summary is a point-in-time reading of a grid, taken over fluid cells only.
type Summary struct {
	MaxDivergence  float64
	MeanDivergence float64
	DyeMass        float64
	MaxSpeed       float64
	PressureMin    float64
	PressureMax    float64
}

func Summarize(g *grid.Grid) Summary {
	var dye, pressure, speed []float64
	for y := 0; y < g.NumY; y++ {
		for x := 0; x < g.NumX; x++ {
			if g.IsSolid(x, y) {
				continue
			}
			u, v := g.CenterVelocity(x, y)
			dye = append(dye, g.ScalarAt(x, y))
			pressure = append(pressure, g.PressureAt(x, y))
			speed = append(speed, math.Hypot(u, v))
		}
	}

	s := Summary{
		MaxDivergence:  g.MaxDivergence(),
		MeanDivergence: g.MeanAbsDivergence(),
	}
	if len(dye) == 0 {
		return s
	}
	s.DyeMass = floats.Sum(dye)
	s.MaxSpeed = floats.Max(speed)
	s.PressureMin = floats.Min(pressure)
	s.PressureMax = floats.Max(pressure)
	return s
}

// Finite reports whether every reading is a finite number.
func (s Summary) Finite() bool {
	for _, v := range []float64{s.MaxDivergence, s.MeanDivergence, s.DyeMass, s.MaxSpeed, s.PressureMin, s.PressureMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Description struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe summarises a series of samples.
func Describe(values []float64) Description {
	if len(values) == 0 {
		return Description{}
	}
	d := Description{
		Mean: stat.Mean(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
	if len(values) > 1 {
		d.StdDev = stat.StdDev(values, nil)
	}
	return d
}
