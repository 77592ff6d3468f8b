package solver

import (
	"fmt"
	"math"

	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/timestep"
)

// Config holds the construction-time constants of a solver. None of them can
// change once the solver is built.
type Config struct {
	XCells, YCells int
	CanvasWidth    float64
	CanvasHeight   float64

	Density        float64
	OverRelaxation float64
	Iterations     int
	Tolerance      float64

	Mode        forcing.Mode
	InflowSpeed float64
	Gravity     float64

	MaxCFL  float64
	CFLMode timestep.Mode

	Obstacle   grid.Shape
	DyeSources []forcing.DyeSource
	Injectors  []forcing.Injector
}

func DefaultConfig() Config {
	return Config{
		XCells:         122,
		YCells:         62,
		CanvasWidth:    1220,
		CanvasHeight:   620,
		Density:        100,
		OverRelaxation: 1.9,
		Iterations:     50,
		Mode:           forcing.ModeWindTunnel,
		InflowSpeed:    50,
		Gravity:        -9.8,
		MaxCFL:         3,
		CFLMode:        timestep.CFLMax,
	}
}

func (c Config) Validate() error {
	if c.XCells < 3 || c.YCells < 3 {
		return fmt.Errorf("%w: grid must be at least 3x3 cells, got %dx%d", ErrParameterBounds, c.XCells, c.YCells)
	}
	if !finite(c.CanvasWidth) || !finite(c.CanvasHeight) || c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas must be positive, got %gx%g", ErrParameterBounds, c.CanvasWidth, c.CanvasHeight)
	}
	if !finite(c.Density) || c.Density <= 0 {
		return fmt.Errorf("%w: density must be positive, got %g", ErrParameterBounds, c.Density)
	}
	if !(c.OverRelaxation >= 1 && c.OverRelaxation < 2) {
		return fmt.Errorf("%w: over-relaxation must be in [1, 2), got %g", ErrParameterBounds, c.OverRelaxation)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be at least 1, got %d", ErrParameterBounds, c.Iterations)
	}
	if !finite(c.Tolerance) || c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrParameterBounds, c.Tolerance)
	}
	if c.Mode != forcing.ModeWindTunnel && c.Mode != forcing.ModeGravityTank {
		return fmt.Errorf("%w: unknown boundary mode %v", ErrParameterBounds, c.Mode)
	}
	if !finite(c.InflowSpeed) || !finite(c.Gravity) {
		return fmt.Errorf("%w: inflow speed and gravity must be finite", ErrParameterBounds)
	}
	if !finite(c.MaxCFL) || c.MaxCFL <= 0 {
		return fmt.Errorf("%w: max CFL must be positive, got %g", ErrParameterBounds, c.MaxCFL)
	}
	if c.CFLMode != timestep.CFLMax && c.CFLMode != timestep.CFLSum {
		return fmt.Errorf("%w: unknown cfl mode %v", ErrParameterBounds, c.CFLMode)
	}
	for i, inj := range c.Injectors {
		if inj.Radius < 0 {
			return fmt.Errorf("%w: injector %d has negative radius", ErrParameterBounds, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
