package streamline

import (
	"math"
	"testing"

	"github.com/san-kum/fluidsim/internal/grid"
)

func tunnel(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(30, 12, 30, 12)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	g.AddWallRing(true)
	for y := 1; y < g.NumY-1; y++ {
		for x := 1; x < g.NumX; x++ {
			g.SetU(x, y, 1)
		}
	}
	return g
}

func TestUniformFlowGivesStraightLines(t *testing.T) {
	g := tunnel(t)
	lines := Trace(g, Options{SeedSpacing: 4, Segments: 10, StepTime: 0.5})
	if len(lines) == 0 {
		t.Fatal("no lines traced")
	}
	for _, l := range lines {
		y0 := l[0].Y
		for i, p := range l {
			if math.Abs(p.Y-y0) > 1e-9 {
				t.Fatalf("line drifted vertically: %v", l)
			}
			if i > 0 && math.Abs(p.X-l[i-1].X-0.5) > 1e-9 {
				t.Fatalf("unexpected step %g", p.X-l[i-1].X)
			}
		}
	}
}

func TestLinesStopAtObstacle(t *testing.T) {
	g := tunnel(t)
	g.Rasterize(grid.Box{Min: grid.Point{X: 10, Y: 0}, Max: grid.Point{X: 12, Y: 12}})

	lines := Trace(g, Options{SeedSpacing: 2, Segments: 100, StepTime: 0.25})
	for _, l := range lines {
		start := l[0].X
		for _, p := range l {
			if start < 10 && p.X >= 10 {
				t.Fatalf("line crossed the wall: %v", p)
			}
		}
	}
}

func TestInvalidOptions(t *testing.T) {
	g := tunnel(t)
	if lines := Trace(g, Options{}); lines != nil {
		t.Errorf("expected no lines for zero options, got %d", len(lines))
	}
}
