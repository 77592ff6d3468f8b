package grid

import "math"

// Field selects one of the sampled quantities. Each carries the staggered
// offset of its storage location inside a cell, in cell units.
type Field int

const (
	FieldU Field = iota
	FieldV
	FieldD
)

func (f Field) String() string {
	switch f {
	case FieldU:
		return "u"
	case FieldV:
		return "v"
	case FieldD:
		return "d"
	default:
		return "unknown"
	}
}

// Offset returns the position of the sample inside its cell.
// u sits on the left face, v on the bottom face, d at the centre.
func (f Field) Offset() (ox, oy float64) {
	switch f {
	case FieldU:
		return 0, 0.5
	case FieldV:
		return 0.5, 0
	default:
		return 0.5, 0.5
	}
}

func (g *Grid) data(f Field) []float64 {
	switch f {
	case FieldU:
		return g.U
	case FieldV:
		return g.V
	default:
		return g.D
	}
}

// Sample bilinearly interpolates field f at world position (x, y).
func (g *Grid) Sample(x, y float64, f Field) float64 {
	return g.SampleFrom(g.data(f), x, y, f)
}

// SampleFrom interpolates data, laid out like field f, at world position (x, y).
// Positions are clamped to [0.5h, (N-1.5)h] on each axis and the resulting
// stencil never leaves the grid.
func (g *Grid) SampleFrom(data []float64, x, y float64, f Field) float64 {
	x, y = g.ClampPosition(x, y)
	ox, oy := f.Offset()

	fx := x/g.cw - ox
	fy := y/g.ch - oy

	x0 := clampInt(int(math.Floor(fx)), 0, g.NumX-2)
	y0 := clampInt(int(math.Floor(fy)), 0, g.NumY-2)
	tx := clamp(fx-float64(x0), 0, 1)
	ty := clamp(fy-float64(y0), 0, 1)

	n := g.NumX
	i := y0*n + x0
	return (1-tx)*(1-ty)*data[i] +
		tx*(1-ty)*data[i+1] +
		(1-tx)*ty*data[i+n] +
		tx*ty*data[i+n+1]
}

// ClampPosition clamps a world position into the region sampling and
// backtracing are allowed to reach.
func (g *Grid) ClampPosition(x, y float64) (float64, float64) {
	if math.IsNaN(x) {
		x = 0
	}
	if math.IsNaN(y) {
		y = 0
	}
	x = clamp(x, 0.5*g.cw, (float64(g.NumX)-1.5)*g.cw)
	y = clamp(y, 0.5*g.ch, (float64(g.NumY)-1.5)*g.ch)
	return x, y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
