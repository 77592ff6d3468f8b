// Package advect transports velocity and dye along the flow with a
// semi-Lagrangian backtrace and bilinear sampling.
package advect

import "github.com/san-kum/fluidsim/internal/grid"

// Advector owns the scratch buffers. Every sweep reads only from a frozen copy
// of the field and writes into a separate buffer that is swapped in afterwards,
// so the result never depends on sweep order.
type Advector struct {
	u0, v0, d0 []float64
	u1, v1, d1 []float64
}

func New() *Advector {
	return &Advector{}
}

func (a *Advector) ensure(n int) {
	if len(a.u0) == n {
		return
	}
	a.u0 = make([]float64, n)
	a.v0 = make([]float64, n)
	a.d0 = make([]float64, n)
	a.u1 = make([]float64, n)
	a.v1 = make([]float64, n)
	a.d1 = make([]float64, n)
}

// Velocity advects both velocity components by dt. A u face is updated only
// when the cells on both sides are fluid; likewise for v.
func (a *Advector) Velocity(g *grid.Grid, dt float64) {
	n := g.NumX
	a.ensure(len(g.U))
	copy(a.u0, g.U)
	copy(a.v0, g.V)
	copy(a.u1, g.U)
	copy(a.v1, g.V)

	cw, ch := g.CellWidth(), g.CellHeight()

	for y := 1; y < g.NumY-1; y++ {
		for x := 1; x < n; x++ {
			i := y*n + x
			if g.S[i] == 0 || g.S[i-1] == 0 {
				continue
			}
			px := float64(x) * cw
			py := (float64(y) + 0.5) * ch
			u := a.u0[i]
			v := avgV(a.v0, n, i)
			a.u1[i] = g.SampleFrom(a.u0, px-dt*u, py-dt*v, grid.FieldU)
		}
	}

	for y := 1; y < g.NumY; y++ {
		for x := 1; x < n-1; x++ {
			i := y*n + x
			if g.S[i] == 0 || g.S[i-n] == 0 {
				continue
			}
			px := (float64(x) + 0.5) * cw
			py := float64(y) * ch
			u := avgU(a.u0, n, i)
			v := a.v0[i]
			a.v1[i] = g.SampleFrom(a.v0, px-dt*u, py-dt*v, grid.FieldV)
		}
	}

	g.U, a.u1 = a.u1, g.U
	g.V, a.v1 = a.v1, g.V
}

// Scalar advects the dye field by dt using cell-centred velocities.
func (a *Advector) Scalar(g *grid.Grid, dt float64) {
	n := g.NumX
	a.ensure(len(g.D))
	copy(a.d0, g.D)
	copy(a.d1, g.D)

	cw, ch := g.CellWidth(), g.CellHeight()

	for y := 1; y < g.NumY-1; y++ {
		for x := 1; x < n-1; x++ {
			i := y*n + x
			if g.S[i] == 0 {
				continue
			}
			u := 0.5 * (g.U[i] + g.U[i+1])
			v := 0.5 * (g.V[i] + g.V[i+n])
			px := (float64(x)+0.5)*cw - dt*u
			py := (float64(y)+0.5)*ch - dt*v
			a.d1[i] = g.SampleFrom(a.d0, px, py, grid.FieldD)
		}
	}

	g.D, a.d1 = a.d1, g.D
}

// avgV averages the four v faces around the u face at index i.
func avgV(v []float64, n, i int) float64 {
	return (v[i-1] + v[i] + v[i-1+n] + v[i+n]) * 0.25
}

// avgU averages the four u faces around the v face at index i.
func avgU(u []float64, n, i int) float64 {
	return (u[i-n] + u[i] + u[i-n+1] + u[i+1]) * 0.25
}
