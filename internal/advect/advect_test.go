package advect

import (
	"math"
	"testing"

	"github.com/san-kum/fluidsim/internal/grid"
)

func newGrid(t *testing.T, n int) *grid.Grid {
	t.Helper()
	g, err := grid.New(n, n, float64(n), float64(n))
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	return g
}

func centroidX(g *grid.Grid) float64 {
	var m, mx float64
	for y := 0; y < g.NumY; y++ {
		for x := 0; x < g.NumX; x++ {
			d := g.ScalarAt(x, y)
			m += d
			mx += d * (float64(x) + 0.5)
		}
	}
	return mx / m
}

func TestScalarTranslationConservesMass(t *testing.T) {
	g := newGrid(t, 60)
	g.AddWallRing(false)
	for i := range g.U {
		g.U[i] = 1
	}
	for y := 1; y < g.NumY-1; y++ {
		for x := 1; x < g.NumX-1; x++ {
			dx, dy := float64(x)-20, float64(y)-30
			g.SetDye(x, y, math.Exp(-(dx*dx+dy*dy)/9))
		}
	}
	mass0 := g.TotalDye()
	c0 := centroidX(g)

	a := New()
	dt := 0.1
	for step := 0; step < 100; step++ {
		a.Scalar(g, dt)
	}

	if rel := math.Abs(g.TotalDye()-mass0) / mass0; rel > 1e-9 {
		t.Errorf("uniform translation lost mass: relative drift %g", rel)
	}
	if shift := centroidX(g) - c0; math.Abs(shift-10) > 1e-6 {
		t.Errorf("expected blob to move 10 cells, moved %g", shift)
	}
}

func TestUniformVelocityIsPreserved(t *testing.T) {
	g := newGrid(t, 20)
	for i := range g.U {
		g.U[i] = 2
		g.V[i] = -1
	}

	a := New()
	a.Velocity(g, 0.05)

	for i := range g.U {
		if math.Abs(g.U[i]-2) > 1e-12 || math.Abs(g.V[i]+1) > 1e-12 {
			t.Fatalf("uniform flow changed at %d: u=%g v=%g", i, g.U[i], g.V[i])
		}
	}
}

func TestVelocityLeavesSolidFacesAlone(t *testing.T) {
	g := newGrid(t, 16)
	g.AddWallRing(false)
	g.Rasterize(grid.Circle{Center: grid.Point{X: 8, Y: 8}, Radius: 3})
	for y := 0; y < g.NumY; y++ {
		for x := 0; x < g.NumX; x++ {
			g.SetVelocity(x, y, math.Sin(float64(x+y)), math.Cos(float64(x*y)))
		}
	}
	before := g.Clone()

	a := New()
	a.Velocity(g, 0.2)

	for y := 0; y < g.NumY; y++ {
		for x := 0; x < g.NumX; x++ {
			u, v := g.VelocityAt(x, y)
			u0, v0 := before.VelocityAt(x, y)
			uFluid := x > 0 && !g.IsSolid(x, y) && !g.IsSolid(x-1, y)
			vFluid := y > 0 && !g.IsSolid(x, y) && !g.IsSolid(x, y-1)
			if !uFluid && u != u0 {
				t.Errorf("u face (%d,%d) next to a solid changed %g -> %g", x, y, u0, u)
			}
			if !vFluid && v != v0 {
				t.Errorf("v face (%d,%d) next to a solid changed %g -> %g", x, y, v0, v)
			}
		}
	}
}

func TestHugeStepStaysInsideGrid(t *testing.T) {
	g := newGrid(t, 10)
	g.AddWallRing(true)
	for i := range g.U {
		g.U[i] = 1e6
		g.V[i] = -1e6
		g.D[i] = 1
	}

	a := New()
	a.Scalar(g, 1e3)
	a.Velocity(g, 1e3)

	for i := range g.U {
		if math.IsNaN(g.U[i]) || math.IsNaN(g.V[i]) || math.IsNaN(g.D[i]) {
			t.Fatalf("non-finite value at %d", i)
		}
	}
}

func TestBuffersAreReused(t *testing.T) {
	g := newGrid(t, 8)
	a := New()
	a.Scalar(g, 0.1)
	first := &a.d0[0]
	a.Scalar(g, 0.1)
	if &a.d0[0] != first {
		t.Error("scratch buffer reallocated between sweeps")
	}
}

// In a linear shear the backtraced sample is exact, so the new face value is
// the old profile evaluated one step upstream.
func TestVelocityShearMatchesBacktrace(t *testing.T) {
	const n = 20
	dt := 0.25

	tests := []struct {
		name   string
		setup  func(g *grid.Grid, x, y int, i int)
		expect func(x, y int) (u, v float64)
	}{
		{
			name: "u varies with y, carried by v",
			setup: func(g *grid.Grid, x, y, i int) {
				g.U[i] = float64(y) + 0.5
				g.V[i] = 1
			},
			expect: func(x, y int) (float64, float64) {
				return float64(y) + 0.5 - dt, 1
			},
		},
		{
			name: "v varies with x, carried by u",
			setup: func(g *grid.Grid, x, y, i int) {
				g.U[i] = 1
				g.V[i] = float64(x) + 0.5
			},
			expect: func(x, y int) (float64, float64) {
				return 1, float64(x) + 0.5 - dt
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid(t, n)
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					tt.setup(g, x, y, g.Index(x, y))
				}
			}

			New().Velocity(g, dt)

			for y := 2; y < n-2; y++ {
				for x := 2; x < n-2; x++ {
					wantU, wantV := tt.expect(x, y)
					gotU, gotV := g.VelocityAt(x, y)
					if math.Abs(gotU-wantU) > 1e-9 || math.Abs(gotV-wantV) > 1e-9 {
						t.Fatalf("(%d,%d): got u=%g v=%g, want u=%g v=%g", x, y, gotU, gotV, wantU, wantV)
					}
				}
			}
		})
	}
}
