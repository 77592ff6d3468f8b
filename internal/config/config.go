package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/solver"
	"github.com/san-kum/fluidsim/internal/timestep"
)

const (
	DefaultDt          = 1.0 / 60
	DefaultFrames      = 600
	DefaultSampleEvery = 10
)

type Config struct {
	Mode        string            `yaml:"mode"`
	Dt          float64           `yaml:"dt"`
	Frames      int               `yaml:"frames"`
	SampleEvery int               `yaml:"sample_every"`
	Grid        GridConfig        `yaml:"grid"`
	Fluid       FluidConfig       `yaml:"fluid"`
	InflowSpeed float64           `yaml:"inflow_speed"`
	Gravity     float64           `yaml:"gravity"`
	Obstacle    grid.ObstacleSpec `yaml:"obstacle"`
	Dye         []DyeConfig       `yaml:"dye,omitempty"`
	Injectors   []InjectorConfig  `yaml:"injectors,omitempty"`
}

type GridConfig struct {
	XCells int     `yaml:"x_cells"`
	YCells int     `yaml:"y_cells"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type FluidConfig struct {
	Density        float64 `yaml:"density"`
	OverRelaxation float64 `yaml:"over_relaxation"`
	Iterations     int     `yaml:"iterations"`
	Tolerance      float64 `yaml:"tolerance,omitempty"`
	MaxCFL         float64 `yaml:"max_cfl"`
	CFLMode        string  `yaml:"cfl_mode"`
}

// DyeConfig describes either periodic bands along a column (band_width > 0)
// or a single rectangle of cells.
type DyeConfig struct {
	Column      int     `yaml:"column,omitempty"`
	FirstRow    int     `yaml:"first_row,omitempty"`
	LastRow     int     `yaml:"last_row,omitempty"`
	BandWidth   int     `yaml:"band_width,omitempty"`
	BandSpacing int     `yaml:"band_spacing,omitempty"`
	X           int     `yaml:"x,omitempty"`
	Y           int     `yaml:"y,omitempty"`
	Width       int     `yaml:"width,omitempty"`
	Height      int     `yaml:"height,omitempty"`
	Amount      float64 `yaml:"amount"`
}

type InjectorConfig struct {
	X      int     `yaml:"x"`
	Y      int     `yaml:"y"`
	Radius int     `yaml:"radius"`
	U      float64 `yaml:"u"`
	V      float64 `yaml:"v"`
	Dye    float64 `yaml:"dye"`
}

func DefaultConfig() *Config {
	d := solver.DefaultConfig()
	return &Config{
		Mode:        forcing.ModeWindTunnel.String(),
		Dt:          DefaultDt,
		Frames:      DefaultFrames,
		SampleEvery: DefaultSampleEvery,
		Grid: GridConfig{
			XCells: d.XCells,
			YCells: d.YCells,
			Width:  d.CanvasWidth,
			Height: d.CanvasHeight,
		},
		Fluid: FluidConfig{
			Density:        d.Density,
			OverRelaxation: d.OverRelaxation,
			Iterations:     d.Iterations,
			MaxCFL:         d.MaxCFL,
			CFLMode:        d.CFLMode.String(),
		},
		InflowSpeed: d.InflowSpeed,
		Gravity:     d.Gravity,
		Obstacle:    grid.ObstacleSpec{Kind: "none"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Dye = slices.Clone(c.Dye)
	out.Injectors = slices.Clone(c.Injectors)
	return &out
}

// SolverConfig converts the file representation into solver constants.
func (c *Config) SolverConfig() (solver.Config, error) {
	mode, err := forcing.ParseMode(c.Mode)
	if err != nil {
		return solver.Config{}, err
	}
	cflMode, err := timestep.ParseMode(c.Fluid.CFLMode)
	if err != nil {
		return solver.Config{}, err
	}
	shape, err := c.Obstacle.Shape()
	if err != nil {
		return solver.Config{}, err
	}

	sc := solver.Config{
		XCells:         c.Grid.XCells,
		YCells:         c.Grid.YCells,
		CanvasWidth:    c.Grid.Width,
		CanvasHeight:   c.Grid.Height,
		Density:        c.Fluid.Density,
		OverRelaxation: c.Fluid.OverRelaxation,
		Iterations:     c.Fluid.Iterations,
		Tolerance:      c.Fluid.Tolerance,
		Mode:           mode,
		InflowSpeed:    c.InflowSpeed,
		Gravity:        c.Gravity,
		MaxCFL:         c.Fluid.MaxCFL,
		CFLMode:        cflMode,
		Obstacle:       shape,
	}
	for _, d := range c.Dye {
		if d.BandWidth > 0 {
			sc.DyeSources = append(sc.DyeSources, forcing.Bands(d.Column, d.FirstRow, d.LastRow, d.BandWidth, d.BandSpacing, d.Amount)...)
			continue
		}
		sc.DyeSources = append(sc.DyeSources, forcing.DyeSource{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height, Amount: d.Amount})
	}
	for _, inj := range c.Injectors {
		sc.Injectors = append(sc.Injectors, forcing.Injector{X: inj.X, Y: inj.Y, Radius: inj.Radius, U: inj.U, V: inj.V, Dye: inj.Dye})
	}

	if err := sc.Validate(); err != nil {
		return solver.Config{}, err
	}
	return sc, nil
}

// Validate checks the run settings and the solver constants they produce.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", c.Frames)
	}
	if c.SampleEvery <= 0 {
		return fmt.Errorf("sample_every must be positive, got %d", c.SampleEvery)
	}
	_, err := c.SolverConfig()
	return err
}
