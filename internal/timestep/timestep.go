// Package timestep limits the frame step so the fastest fluid face moves at
// most MaxCFL cells per step.
package timestep

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/fluidsim/internal/grid"
)

type Mode int

const (
	// CFLMax takes the larger of the per-axis Courant numbers.
	CFLMax Mode = iota
	// CFLSum adds them, which is stricter for diagonal flow.
	CFLSum
)

func (m Mode) String() string {
	if m == CFLSum {
		return "sum"
	}
	return "max"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "max":
		return CFLMax, nil
	case "sum":
		return CFLSum, nil
	}
	return 0, fmt.Errorf("unknown cfl mode %q", s)
}

type Controller struct {
	MaxCFL float64
	Mode   Mode
}

// CFL returns the Courant number of the current field for step dt.
func (c Controller) CFL(g *grid.Grid, dt float64) float64 {
	maxU, maxV := g.MaxSpeed()
	cx := maxU * dt / g.CellWidth()
	cy := maxV * dt / g.CellHeight()
	if c.Mode == CFLSum {
		return cx + cy
	}
	return math.Max(cx, cy)
}

// AdjustedDt scales dt down so that CFL(g, dt) <= MaxCFL. It never grows dt.
// Negative, zero or non-finite input yields 0 and the frame should be skipped.
func (c Controller) AdjustedDt(g *grid.Grid, dt float64) float64 {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return 0
	}
	if c.MaxCFL <= 0 {
		return dt
	}
	cfl := c.CFL(g, dt)
	if cfl > c.MaxCFL {
		dt *= c.MaxCFL / cfl
	}
	return dt
}
