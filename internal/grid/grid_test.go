package grid

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name       string
		nx, ny     int
		cw, ch     float64
		shouldFail bool
	}{
		{"minimal", 3, 3, 3, 3, false},
		{"rectangular", 40, 20, 400, 200, false},
		{"too narrow", 2, 10, 10, 10, true},
		{"too short", 10, 1, 10, 10, true},
		{"zero canvas", 10, 10, 0, 10, true},
		{"negative canvas", 10, 10, 10, -1, true},
		{"infinite canvas", 10, 10, math.Inf(1), 10, true},
		{"nan canvas", 10, 10, 10, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.nx, tt.ny, tt.cw, tt.ch)
			if tt.shouldFail {
				if !errors.Is(err, ErrInvalidGrid) {
					t.Fatalf("expected ErrInvalidGrid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.Width() != tt.nx || g.Height() != tt.ny {
				t.Errorf("expected %dx%d, got %dx%d", tt.nx, tt.ny, g.Width(), g.Height())
			}
		})
	}
}

func TestCellSize(t *testing.T) {
	g := mustGrid(t, 40, 20, 400, 100)
	if g.CellWidth() != 10 || g.CellHeight() != 5 {
		t.Errorf("expected 10x5 cells, got %gx%g", g.CellWidth(), g.CellHeight())
	}
}

func TestIndexPanicsOutOfRange(t *testing.T) {
	g := mustGrid(t, 5, 5, 5, 5)
	for _, c := range [][2]int{{-1, 0}, {5, 0}, {0, -1}, {0, 5}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for (%d,%d)", c[0], c[1])
				}
			}()
			g.ScalarAt(c[0], c[1])
		}()
	}
}

func TestSetSolidClearsState(t *testing.T) {
	g := mustGrid(t, 5, 5, 5, 5)
	g.SetVelocity(2, 2, 1, 2)
	g.P[g.Index(2, 2)] = 3
	g.SetDye(2, 2, 4)

	g.SetSolid(2, 2, true)

	u, v := g.VelocityAt(2, 2)
	if !g.IsSolid(2, 2) || u != 0 || v != 0 || g.PressureAt(2, 2) != 0 {
		t.Errorf("solid cell kept state: u=%g v=%g p=%g", u, v, g.PressureAt(2, 2))
	}
	if g.ScalarAt(2, 2) != 4 {
		t.Errorf("dye should be left to the caller, got %g", g.ScalarAt(2, 2))
	}
}

func TestWallRing(t *testing.T) {
	g := mustGrid(t, 6, 5, 6, 5)
	g.AddWallRing(true)

	for y := 0; y < g.NumY; y++ {
		if !g.IsSolid(0, y) {
			t.Errorf("left wall missing at y=%d", y)
		}
	}
	for x := 0; x < g.NumX; x++ {
		if !g.IsSolid(x, 0) || !g.IsSolid(x, g.NumY-1) {
			t.Errorf("horizontal wall missing at x=%d", x)
		}
	}
	for y := 1; y < g.NumY-1; y++ {
		if g.IsSolid(g.NumX-1, y) {
			t.Errorf("outflow column should stay open at y=%d", y)
		}
	}

	closed := mustGrid(t, 6, 5, 6, 5)
	closed.AddWallRing(false)
	for y := 0; y < closed.NumY; y++ {
		if !closed.IsSolid(closed.NumX-1, y) {
			t.Errorf("right wall missing at y=%d", y)
		}
	}
}

func TestSampleReproducesLinearField(t *testing.T) {
	g := mustGrid(t, 12, 10, 12, 10)
	for _, f := range []Field{FieldU, FieldV, FieldD} {
		data := g.data(f)
		ox, oy := f.Offset()
		for y := 0; y < g.NumY; y++ {
			for x := 0; x < g.NumX; x++ {
				wx := (float64(x) + ox) * g.CellWidth()
				wy := (float64(y) + oy) * g.CellHeight()
				data[g.Index(x, y)] = 1 + 2*wx - 3*wy
			}
		}

		for _, p := range [][2]float64{{3.2, 4.7}, {5.5, 5.5}, {1.1, 8.0}, {9.9, 2.3}} {
			got := g.Sample(p[0], p[1], f)
			want := 1 + 2*p[0] - 3*p[1]
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("%s at %v: expected %g, got %g", f, p, want, got)
			}
		}
	}
}

func TestSampleClampsOutsideDomain(t *testing.T) {
	g := mustGrid(t, 8, 8, 8, 8)
	for i := range g.D {
		g.D[i] = 1
	}
	for _, p := range [][2]float64{{-100, -100}, {1e9, 4}, {4, math.Inf(1)}, {math.NaN(), 3}} {
		if got := g.Sample(p[0], p[1], FieldD); got != 1 {
			t.Errorf("sample at %v: expected 1, got %g", p, got)
		}
	}
}

func TestDivergenceDiagnostics(t *testing.T) {
	g := mustGrid(t, 5, 5, 5, 5)
	g.AddWallRing(false)
	g.SetU(3, 2, 1)

	if d := g.Divergence(2, 2); d != 1 {
		t.Errorf("expected divergence 1 at (2,2), got %g", d)
	}
	if d := g.Divergence(3, 2); d != -1 {
		t.Errorf("expected divergence -1 at (3,2), got %g", d)
	}
	if g.MaxDivergence() != 1 {
		t.Errorf("expected max divergence 1, got %g", g.MaxDivergence())
	}
	if want := 2.0 / 9.0; math.Abs(g.MeanAbsDivergence()-want) > 1e-12 {
		t.Errorf("expected mean %g, got %g", want, g.MeanAbsDivergence())
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	g := mustGrid(t, 6, 6, 6, 6)
	g.SetDye(2, 3, 5)
	snap := g.Snapshot()

	g.SetDye(2, 3, 9)
	g.SetSolid(1, 1, true)

	if snap.ScalarAt(2, 3) != 5 {
		t.Errorf("snapshot saw later write: %g", snap.ScalarAt(2, 3))
	}
	if snap.IsSolid(1, 1) {
		t.Error("snapshot saw later mask change")
	}
}

func TestResetKeepsMask(t *testing.T) {
	g := NewWithT(t)
	grd := mustGrid(t, 6, 6, 6, 6)
	grd.AddWallRing(false)
	grd.SetVelocity(2, 2, 1, 1)
	grd.SetDye(3, 3, 2)

	grd.Reset()

	g.Expect(grd.IsSolid(0, 0)).To(BeTrue())
	g.Expect(grd.TotalDye()).To(BeZero())
	u, v := grd.VelocityAt(2, 2)
	g.Expect(u).To(BeZero())
	g.Expect(v).To(BeZero())
}

func mustGrid(t *testing.T, nx, ny int, w, h float64) *Grid {
	t.Helper()
	g, err := New(nx, ny, w, h)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	return g
}
