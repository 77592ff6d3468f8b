package timestep

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/fluidsim/internal/grid"
)

func newGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(20, 12, 40, 12)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	g.AddWallRing(true)
	return g
}

func TestAdjustedDtRespectsCFL(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, mode := range []Mode{CFLMax, CFLSum} {
		c := Controller{MaxCFL: 3, Mode: mode}
		for trial := 0; trial < 50; trial++ {
			g := newGrid(t)
			scale := math.Pow(10, rng.Float64()*4-1)
			for i := range g.U {
				g.U[i] = (rng.Float64()*2 - 1) * scale
				g.V[i] = (rng.Float64()*2 - 1) * scale
			}
			raw := rng.Float64() * 2

			dt := c.AdjustedDt(g, raw)

			if dt > raw {
				t.Fatalf("%v: dt grew from %g to %g", mode, raw, dt)
			}
			if cfl := c.CFL(g, dt); cfl > c.MaxCFL+1e-9 {
				t.Fatalf("%v: cfl %g above limit for dt %g", mode, cfl, dt)
			}
		}
	}
}

func TestSlowFlowKeepsRequestedDt(t *testing.T) {
	g := newGrid(t)
	g.SetU(5, 5, 1)
	c := Controller{MaxCFL: 3}

	if dt := c.AdjustedDt(g, 1.0/60); dt != 1.0/60 {
		t.Errorf("expected dt unchanged, got %g", dt)
	}
}

func TestCFLUsesCellSize(t *testing.T) {
	g := newGrid(t)
	g.SetU(5, 5, 4)
	g.SetV(5, 5, 3)

	if got := (Controller{Mode: CFLMax}).CFL(g, 1); got != 3 {
		t.Errorf("max mode: expected 3, got %g", got)
	}
	if got := (Controller{Mode: CFLSum}).CFL(g, 1); got != 5 {
		t.Errorf("sum mode: expected 5, got %g", got)
	}
}

func TestInvalidDtYieldsZero(t *testing.T) {
	g := newGrid(t)
	c := Controller{MaxCFL: 3}
	for _, raw := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if dt := c.AdjustedDt(g, raw); dt != 0 {
			t.Errorf("dt %g: expected 0, got %g", raw, dt)
		}
	}
}

func TestSolidFacesIgnored(t *testing.T) {
	g := newGrid(t)
	g.U[g.Index(0, 5)] = 1e9
	c := Controller{MaxCFL: 1}

	if dt := c.AdjustedDt(g, 0.1); dt != 0.1 {
		t.Errorf("solid face should not limit dt, got %g", dt)
	}
}
