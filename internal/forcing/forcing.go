// Package forcing applies the per-frame external forces and boundary conditions:
// gravity or wind-tunnel inflow/outflow, dye sources, velocity injectors and the
// solid-cell invariant.
package forcing

import (
	"fmt"
	"strings"

	"github.com/san-kum/fluidsim/internal/grid"
)

type Mode int

const (
	ModeWindTunnel Mode = iota
	ModeGravityTank
)

func (m Mode) String() string {
	switch m {
	case ModeWindTunnel:
		return "wind_tunnel"
	case ModeGravityTank:
		return "gravity_tank"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "wind_tunnel", "tunnel", "wind":
		return ModeWindTunnel, nil
	case "gravity_tank", "tank", "gravity":
		return ModeGravityTank, nil
	}
	return 0, fmt.Errorf("unknown boundary mode %q", s)
}

// DyeSource adds Amount of dye every frame to each fluid cell of a rectangle.
type DyeSource struct {
	X, Y          int
	Width, Height int
	Amount        float64
}

// Bands builds periodic bands along a column: bands of width rows start at
// firstRow and repeat every spacing rows up to lastRow inclusive. A spacing of
// zero yields a single band.
func Bands(column, firstRow, lastRow, width, spacing int, amount float64) []DyeSource {
	if width <= 0 {
		return nil
	}
	var bands []DyeSource
	for y := firstRow; y <= lastRow; y += spacing {
		h := min(width, lastRow-y+1)
		bands = append(bands, DyeSource{X: column, Y: y, Width: 1, Height: h, Amount: amount})
		if spacing <= 0 {
			break
		}
	}
	return bands
}

// Injector forces a jet of velocity and dye over a disc of cells.
type Injector struct {
	X, Y   int
	Radius int
	U, V   float64
	Dye    float64
}

type Stage struct {
	Mode        Mode
	Gravity     float64
	InflowSpeed float64
	Sources     []DyeSource
	Injectors   []Injector
}

// Apply runs the forcing for one frame of length dt.
func (st *Stage) Apply(g *grid.Grid, dt float64) {
	st.enforceSolids(g)

	switch st.Mode {
	case ModeWindTunnel:
		st.applyInflow(g)
		st.applyOutflow(g)
	case ModeGravityTank:
		st.applyGravity(g, dt)
	}

	for _, inj := range st.Injectors {
		applyInjector(g, inj)
	}
	for _, src := range st.Sources {
		applySource(g, src)
	}
}

// BoundaryFix re-imposes inflow, outflow and the solid invariant after a
// projection or advection pass. After it returns every solid cell has u = v = 0.
func (st *Stage) BoundaryFix(g *grid.Grid) {
	if st.Mode == ModeWindTunnel {
		st.applyInflow(g)
		st.applyOutflow(g)
	}
	st.enforceSolids(g)
}

func (st *Stage) enforceSolids(g *grid.Grid) {
	for i, s := range g.S {
		if s == 0 {
			g.U[i] = 0
			g.V[i] = 0
			g.P[i] = 0
		}
	}
}

// Column 1 is the inflow column; x = 0 is its solid backing wall.
func (st *Stage) applyInflow(g *grid.Grid) {
	n := g.NumX
	for y := 1; y < g.NumY-1; y++ {
		i := y*n + 1
		if g.S[i] == 0 {
			continue
		}
		g.U[i] = st.InflowSpeed
		g.V[i] = 0
	}
}

// The last column copies its interior neighbour (zero-gradient outflow).
func (st *Stage) applyOutflow(g *grid.Grid) {
	n := g.NumX
	last := n - 1
	for y := 1; y < g.NumY-1; y++ {
		i := y*n + last
		if g.S[i] == 0 {
			continue
		}
		g.U[i] = g.U[i-1]
		if g.S[i-n] != 0 {
			g.V[i] = g.V[i-1]
		}
		g.D[i] = g.D[i-1]
	}
}

// Gravity acts on v faces whose cell and the cell below are both fluid.
func (st *Stage) applyGravity(g *grid.Grid, dt float64) {
	n := g.NumX
	dv := st.Gravity * dt
	for y := 1; y < g.NumY; y++ {
		for x := 0; x < n; x++ {
			i := y*n + x
			if g.S[i] != 0 && g.S[i-n] != 0 {
				g.V[i] += dv
			}
		}
	}
}

func applyInjector(g *grid.Grid, inj Injector) {
	n := g.NumX
	r2 := inj.Radius * inj.Radius
	for y := max(inj.Y-inj.Radius, 1); y <= min(inj.Y+inj.Radius, g.NumY-1); y++ {
		for x := max(inj.X-inj.Radius, 1); x <= min(inj.X+inj.Radius, n-1); x++ {
			dx, dy := x-inj.X, y-inj.Y
			if dx*dx+dy*dy > r2 {
				continue
			}
			i := y*n + x
			if g.S[i] == 0 {
				continue
			}
			if g.S[i-1] != 0 {
				g.U[i] = inj.U
			}
			if g.S[i-n] != 0 {
				g.V[i] = inj.V
			}
			if inj.Dye != 0 {
				g.D[i] = inj.Dye
			}
		}
	}
}

func applySource(g *grid.Grid, src DyeSource) {
	for y := max(src.Y, 0); y < min(src.Y+src.Height, g.NumY); y++ {
		for x := max(src.X, 0); x < min(src.X+src.Width, g.NumX); x++ {
			i := g.Index(x, y)
			if g.S[i] != 0 {
				g.D[i] += src.Amount
			}
		}
	}
}
