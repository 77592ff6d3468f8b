// Package grid holds the staggered (MAC) grid state shared by every solver stage.
//
// Layout:
//
//   - cells are addressed (x, y) with y growing upward; row 0 is the bottom of the domain
//   - U[i] is the horizontal velocity on the left face of cell i
//   - V[i] is the vertical velocity on the bottom face of cell i
//   - D, P and S are cell centred (dye, pressure, fluid mask)
//
// All fields are flat slices indexed by y*NumX + x. The outer ring of cells is part
// of the grid and is normally marked solid.
package grid

import (
	"fmt"
	"math"
)

type Grid struct {
	NumX, NumY int

	// Exported for the solver stages that sweep the fields directly.
	U []float64
	V []float64
	D []float64
	P []float64
	S []float64 // 1 = fluid, 0 = solid

	cw, ch float64
	width  float64
	height float64
}

// New allocates a grid of numX*numY cells covering a canvasW x canvasH world.
// Every cell starts as fluid with zero velocity, dye and pressure.
func New(numX, numY int, canvasW, canvasH float64) (*Grid, error) {
	if numX < 3 || numY < 3 {
		return nil, fmt.Errorf("%w: need at least 3x3 cells, got %dx%d", ErrInvalidGrid, numX, numY)
	}
	if !positiveFinite(canvasW) || !positiveFinite(canvasH) {
		return nil, fmt.Errorf("%w: canvas must be positive and finite, got %gx%g", ErrInvalidGrid, canvasW, canvasH)
	}

	n := numX * numY
	g := &Grid{
		NumX:   numX,
		NumY:   numY,
		U:      make([]float64, n),
		V:      make([]float64, n),
		D:      make([]float64, n),
		P:      make([]float64, n),
		S:      make([]float64, n),
		cw:     canvasW / float64(numX),
		ch:     canvasH / float64(numY),
		width:  canvasW,
		height: canvasH,
	}
	for i := range g.S {
		g.S[i] = 1
	}
	return g, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (g *Grid) Width() int  { return g.NumX }
func (g *Grid) Height() int { return g.NumY }

func (g *Grid) CellWidth() float64  { return g.cw }
func (g *Grid) CellHeight() float64 { return g.ch }

func (g *Grid) CanvasWidth() float64  { return g.width }
func (g *Grid) CanvasHeight() float64 { return g.height }

// Index returns the flat index of cell (x, y). It panics when the cell is out of range.
func (g *Grid) Index(x, y int) int {
	if x < 0 || x >= g.NumX {
		panic(fmt.Sprintf("grid: invalid x-index %d (width %d)", x, g.NumX))
	}
	if y < 0 || y >= g.NumY {
		panic(fmt.Sprintf("grid: invalid y-index %d (height %d)", y, g.NumY))
	}
	return y*g.NumX + x
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.NumX && y >= 0 && y < g.NumY
}

// VelocityAt returns the raw staggered components stored for cell (x, y):
// u on its left face and v on its bottom face.
func (g *Grid) VelocityAt(x, y int) (u, v float64) {
	i := g.Index(x, y)
	return g.U[i], g.V[i]
}

// CenterVelocity averages the two faces of each axis to the centre of cell (x, y).
// Faces beyond the last column or row are taken as equal to the cell's own face.
func (g *Grid) CenterVelocity(x, y int) (u, v float64) {
	i := g.Index(x, y)
	right, top := g.U[i], g.V[i]
	if x+1 < g.NumX {
		right = g.U[i+1]
	}
	if y+1 < g.NumY {
		top = g.V[i+g.NumX]
	}
	return 0.5 * (g.U[i] + right), 0.5 * (g.V[i] + top)
}

func (g *Grid) ScalarAt(x, y int) float64   { return g.D[g.Index(x, y)] }
func (g *Grid) PressureAt(x, y int) float64 { return g.P[g.Index(x, y)] }
func (g *Grid) IsSolid(x, y int) bool       { return g.S[g.Index(x, y)] == 0 }

// SetSolid marks cell (x, y) solid or fluid. Solid cells lose their stored
// velocity and pressure.
func (g *Grid) SetSolid(x, y int, solid bool) {
	i := g.Index(x, y)
	if !solid {
		g.S[i] = 1
		return
	}
	g.S[i] = 0
	g.U[i] = 0
	g.V[i] = 0
	g.P[i] = 0
}

func (g *Grid) SetVelocity(x, y int, u, v float64) {
	i := g.Index(x, y)
	g.U[i] = u
	g.V[i] = v
}

func (g *Grid) SetU(x, y int, u float64) { g.U[g.Index(x, y)] = u }
func (g *Grid) SetV(x, y int, v float64) { g.V[g.Index(x, y)] = v }

func (g *Grid) SetDye(x, y int, d float64) { g.D[g.Index(x, y)] = d }
func (g *Grid) AddDye(x, y int, d float64) { g.D[g.Index(x, y)] += d }

// ClearPressure zeroes the pressure field.
func (g *Grid) ClearPressure() {
	clear(g.P)
}

// Reset zeroes velocity, dye and pressure but keeps the solid mask.
func (g *Grid) Reset() {
	clear(g.U)
	clear(g.V)
	clear(g.D)
	clear(g.P)
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	c.U = append([]float64(nil), g.U...)
	c.V = append([]float64(nil), g.V...)
	c.D = append([]float64(nil), g.D...)
	c.P = append([]float64(nil), g.P...)
	c.S = append([]float64(nil), g.S...)
	return &c
}

// AddWallRing marks the outer ring solid. With openOutflow the last column is
// left fluid so flow can leave the domain there.
func (g *Grid) AddWallRing(openOutflow bool) {
	for y := 0; y < g.NumY; y++ {
		g.SetSolid(0, y, true)
		if !openOutflow {
			g.SetSolid(g.NumX-1, y, true)
		}
	}
	for x := 0; x < g.NumX; x++ {
		g.SetSolid(x, 0, true)
		g.SetSolid(x, g.NumY-1, true)
	}
}
