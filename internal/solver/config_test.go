package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/timestep"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tiny grid", func(c *Config) { c.XCells = 2 }},
		{"zero canvas", func(c *Config) { c.CanvasHeight = 0 }},
		{"zero density", func(c *Config) { c.Density = 0 }},
		{"nan density", func(c *Config) { c.Density = math.NaN() }},
		{"under-relaxation", func(c *Config) { c.OverRelaxation = 0.5 }},
		{"relaxation of two", func(c *Config) { c.OverRelaxation = 2 }},
		{"no iterations", func(c *Config) { c.Iterations = 0 }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"unknown mode", func(c *Config) { c.Mode = forcing.Mode(9) }},
		{"infinite inflow", func(c *Config) { c.InflowSpeed = math.Inf(1) }},
		{"zero cfl", func(c *Config) { c.MaxCFL = 0 }},
		{"unknown cfl mode", func(c *Config) { c.CFLMode = timestep.Mode(5) }},
		{"negative injector radius", func(c *Config) {
			c.Injectors = []forcing.Injector{{X: 3, Y: 3, Radius: -1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := New(cfg)
			if !errors.Is(err, ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestNewBuildsWallsAndObstacle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.XCells, cfg.YCells = 40, 20
	cfg.CanvasWidth, cfg.CanvasHeight = 40, 20
	cfg.Obstacle = grid.Airfoil{LeadingEdge: grid.Point{X: 10, Y: 10}, Chord: 15, Thickness: 0.2}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if !s.IsSolid(0, 5) || !s.IsSolid(5, 0) || !s.IsSolid(5, 19) {
		t.Error("wall ring missing")
	}
	if s.IsSolid(39, 5) {
		t.Error("wind tunnel outflow column should be open")
	}
	if !s.IsSolid(14, 10) {
		t.Error("airfoil body should be solid")
	}
	if s.IsSolid(9, 10) || s.IsSolid(26, 10) {
		t.Error("cells outside the chord should stay fluid")
	}
}

func TestInjectorToggle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Injectors = []forcing.Injector{{X: 20, Y: 20, Radius: 2, U: 10, Dye: 1}}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !s.InjectorsEnabled() {
		t.Fatal("configured injectors should start enabled")
	}
	s.SetInjectorsEnabled(false)
	s.Step(1.0 / 60)
	if s.ScalarAt(20, 20) != 0 {
		t.Error("disabled injector still added dye")
	}
	s.SetInjectorsEnabled(true)
	if !s.InjectorsEnabled() {
		t.Error("injectors not re-enabled")
	}
}

func TestResetRestoresInjectors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Injectors = []forcing.Injector{{X: 20, Y: 20, Radius: 2, U: 10, Dye: 1}}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.SetInjectorsEnabled(false)
	s.Reset()
	if !s.InjectorsEnabled() {
		t.Fatal("reset should bring back the configured injectors")
	}
	s.Step(1.0 / 60)
	if s.ScalarAt(20, 20) == 0 {
		t.Error("injector inactive after reset")
	}
}
