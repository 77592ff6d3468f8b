package config

import (
	"sort"

	"github.com/san-kum/fluidsim/internal/grid"
)

var tunnelGrid = GridConfig{XCells: 122, YCells: 62, Width: 1220, Height: 620}
var tankGrid = GridConfig{XCells: 82, YCells: 82, Width: 820, Height: 820}

var tunnelFluid = FluidConfig{Density: 100, OverRelaxation: 1.9, Iterations: 50, MaxCFL: 3, CFLMode: "max"}
var tankFluid = FluidConfig{Density: 100, OverRelaxation: 1.9, Iterations: 60, MaxCFL: 3, CFLMode: "max"}

// Two bands either side of the centre line, fed just downstream of the inflow.
var tunnelDye = []DyeConfig{{Column: 3, FirstRow: 11, LastRow: 50, BandWidth: 15, BandSpacing: 25, Amount: 0.1}}

var Presets = map[string]map[string]*Config{
	"wind_tunnel": {
		"empty": {
			Mode: "wind_tunnel", Dt: DefaultDt, Frames: 600, SampleEvery: 10,
			Grid: tunnelGrid, Fluid: tunnelFluid, InflowSpeed: 50,
			Obstacle: grid.ObstacleSpec{Kind: "none"},
			Dye:      tunnelDye,
		},
		"cylinder": {
			Mode: "wind_tunnel", Dt: DefaultDt, Frames: 900, SampleEvery: 10,
			Grid: tunnelGrid, Fluid: tunnelFluid, InflowSpeed: 50,
			Obstacle: grid.ObstacleSpec{Kind: "circle", X: 41, Y: 31, Radius: 8},
			Dye:      tunnelDye,
		},
		"airfoil": {
			Mode: "wind_tunnel", Dt: DefaultDt, Frames: 900, SampleEvery: 10,
			Grid: tunnelGrid, Fluid: tunnelFluid, InflowSpeed: 50,
			Obstacle: grid.ObstacleSpec{Kind: "airfoil", X: 25, Y: 31, Chord: 50, Thickness: 0.12},
			Dye:      tunnelDye,
		},
		"box": {
			Mode: "wind_tunnel", Dt: DefaultDt, Frames: 900, SampleEvery: 10,
			Grid: tunnelGrid, Fluid: tunnelFluid, InflowSpeed: 50,
			Obstacle: grid.ObstacleSpec{Kind: "box", X: 45, Y: 24, Width: 12, Height: 14},
			Dye:      tunnelDye,
		},
		"pegs": {
			Mode: "wind_tunnel", Dt: DefaultDt, Frames: 900, SampleEvery: 10,
			Grid: tunnelGrid, Fluid: tunnelFluid, InflowSpeed: 50,
			Obstacle: grid.ObstacleSpec{Kind: "pegs", X: 40, Y: 11, Rows: 5, Cols: 4, Spacing: 10, Radius: 2},
			Dye:      tunnelDye,
		},
	},
	"gravity_tank": {
		"still": {
			Mode: "gravity_tank", Dt: DefaultDt, Frames: 300, SampleEvery: 10,
			Grid: tankGrid, Fluid: tankFluid, Gravity: -9.8,
			Obstacle: grid.ObstacleSpec{Kind: "none"},
			Dye:      []DyeConfig{{X: 21, Y: 1, Width: 40, Height: 1, Amount: 0.1}},
		},
		"injector": {
			Mode: "gravity_tank", Dt: DefaultDt, Frames: 600, SampleEvery: 10,
			Grid: tankGrid, Fluid: tankFluid, Gravity: 0,
			Obstacle:  grid.ObstacleSpec{Kind: "none"},
			Injectors: []InjectorConfig{{X: 20, Y: 41, Radius: 3, U: 50, Dye: 1}},
		},
		"pegs": {
			Mode: "gravity_tank", Dt: DefaultDt, Frames: 600, SampleEvery: 10,
			Grid: tankGrid, Fluid: tankFluid, Gravity: -9.8,
			Obstacle:  grid.ObstacleSpec{Kind: "pegs", X: 16, Y: 20, Rows: 4, Cols: 5, Spacing: 12, Radius: 3},
			Injectors: []InjectorConfig{{X: 41, Y: 72, Radius: 3, V: -40, Dye: 1}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(mode, preset string) *Config {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	cfg, ok := modePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(mode string) []string {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modePresets))
	for name := range modePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListModes() []string {
	modes := make([]string, 0, len(Presets))
	for m := range Presets {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}
