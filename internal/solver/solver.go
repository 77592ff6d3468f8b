// Package solver sequences the fluid stages into frames.
//
// One call to Step runs a whole frame:
//
//	adjust dt -> forcing -> project -> fix -> advect (dye, velocity) -> fix -> project -> fix
//
// The second projection removes the divergence reintroduced by advection.
// A Solver is not safe for concurrent use; hosts that render from another
// goroutine should hand over a Snapshot.
package solver

import (
	"github.com/san-kum/fluidsim/internal/advect"
	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/pressure"
	"github.com/san-kum/fluidsim/internal/streamline"
	"github.com/san-kum/fluidsim/internal/timestep"
)

type Solver struct {
	cfg       Config
	grid      *grid.Grid
	forcing   *forcing.Stage
	projector *pressure.Projector
	advector  *advect.Advector
	clock     timestep.Controller
	stats     Stats
}

// Stats describes the last completed frame.
type Stats struct {
	Frame  int
	Time   float64
	Dt     float64
	RawDt  float64
	First  pressure.Stats
	Second pressure.Stats
}

func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := buildGrid(cfg)
	if err != nil {
		return nil, err
	}

	return &Solver{
		cfg:  cfg,
		grid: g,
		forcing: &forcing.Stage{
			Mode:        cfg.Mode,
			Gravity:     cfg.Gravity,
			InflowSpeed: cfg.InflowSpeed,
			Sources:     cfg.DyeSources,
			Injectors:   cfg.Injectors,
		},
		projector: &pressure.Projector{
			Density:        cfg.Density,
			OverRelaxation: cfg.OverRelaxation,
			Tolerance:      cfg.Tolerance,
		},
		advector: advect.New(),
		clock:    timestep.Controller{MaxCFL: cfg.MaxCFL, Mode: cfg.CFLMode},
	}, nil
}

func buildGrid(cfg Config) (*grid.Grid, error) {
	g, err := grid.New(cfg.XCells, cfg.YCells, cfg.CanvasWidth, cfg.CanvasHeight)
	if err != nil {
		return nil, err
	}
	g.AddWallRing(cfg.Mode == forcing.ModeWindTunnel)
	g.Rasterize(cfg.Obstacle)
	return g, nil
}

// Step advances one frame and returns the dt actually integrated, which is
// rawDt reduced to satisfy the CFL limit. A rawDt that is not positive and
// finite leaves the state untouched and returns 0.
func (s *Solver) Step(rawDt float64) float64 {
	g := s.grid
	dt := s.clock.AdjustedDt(g, rawDt)
	if dt == 0 {
		return 0
	}
	iters := s.cfg.Iterations

	s.forcing.Apply(g, dt)

	g.ClearPressure()
	first := s.projector.Project(g, dt, iters)
	s.forcing.BoundaryFix(g)

	s.advector.Scalar(g, dt)
	s.advector.Velocity(g, dt)
	s.forcing.BoundaryFix(g)

	second := s.projector.Project(g, dt, iters)
	s.forcing.BoundaryFix(g)

	s.stats = Stats{
		Frame:  s.stats.Frame + 1,
		Time:   s.stats.Time + dt,
		Dt:     dt,
		RawDt:  rawDt,
		First:  first,
		Second: second,
	}
	return dt
}

// Reset rebuilds the constructed state and re-enables the configured
// injectors. Grids previously returned by Grid are detached from the solver
// afterwards.
func (s *Solver) Reset() {
	g, err := buildGrid(s.cfg)
	if err != nil {
		// the config was validated in New
		panic(err)
	}
	s.grid = g
	s.stats = Stats{}
	s.forcing.Injectors = s.cfg.Injectors
}

func (s *Solver) Config() Config { return s.cfg }
func (s *Solver) Stats() Stats   { return s.stats }

// Grid exposes the live grid so hosts can seed initial conditions between steps.
func (s *Solver) Grid() *grid.Grid { return s.grid }

func (s *Solver) Snapshot() *grid.Snapshot { return s.grid.Snapshot() }

func (s *Solver) VelocityAt(x, y int) (u, v float64) { return s.grid.VelocityAt(x, y) }
func (s *Solver) ScalarAt(x, y int) float64          { return s.grid.ScalarAt(x, y) }
func (s *Solver) PressureAt(x, y int) float64        { return s.grid.PressureAt(x, y) }
func (s *Solver) IsSolid(x, y int) bool              { return s.grid.IsSolid(x, y) }

// CFL reports the Courant number the current field would have for dt.
func (s *Solver) CFL(dt float64) float64 {
	return s.clock.CFL(s.grid, dt)
}

// SetInjectorsEnabled switches the configured injectors on or off.
func (s *Solver) SetInjectorsEnabled(on bool) {
	if on {
		s.forcing.Injectors = s.cfg.Injectors
		return
	}
	s.forcing.Injectors = nil
}

func (s *Solver) InjectorsEnabled() bool {
	return len(s.forcing.Injectors) > 0
}

func (s *Solver) Streamlines(opts streamline.Options) []streamline.Line {
	return streamline.Trace(s.grid, opts)
}
