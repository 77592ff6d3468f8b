// Package streamline traces polylines through a sampled velocity field.
package streamline

import (
	"math"

	"github.com/san-kum/fluidsim/internal/grid"
)

// Field is the part of a grid the tracer reads.
type Field interface {
	Width() int
	Height() int
	CellWidth() float64
	CellHeight() float64
	IsSolid(x, y int) bool
	Sample(x, y float64, f grid.Field) float64
}

type Options struct {
	SeedSpacing int     // cells between seeds on both axes
	Segments    int     // maximum segments per line
	StepTime    float64 // integration time per segment
}

func DefaultOptions() Options {
	return Options{SeedSpacing: 5, Segments: 100, StepTime: 0.01}
}

// Line is a polyline in world coordinates.
type Line []grid.Point

// Trace seeds one line at the centre of every SeedSpacing-th fluid cell and
// follows the velocity with forward Euler steps until it leaves the domain,
// enters a solid or runs out of segments. Lines with no segment are dropped.
func Trace(f Field, opts Options) []Line {
	if opts.SeedSpacing <= 0 || opts.Segments <= 0 || opts.StepTime <= 0 {
		return nil
	}
	cw, ch := f.CellWidth(), f.CellHeight()

	var lines []Line
	for y := 1; y < f.Height()-1; y += opts.SeedSpacing {
		for x := 1; x < f.Width()-1; x += opts.SeedSpacing {
			if f.IsSolid(x, y) {
				continue
			}
			p := grid.Point{X: (float64(x) + 0.5) * cw, Y: (float64(y) + 0.5) * ch}
			line := Line{p}
			for s := 0; s < opts.Segments; s++ {
				u := f.Sample(p.X, p.Y, grid.FieldU)
				v := f.Sample(p.X, p.Y, grid.FieldV)
				p = grid.Point{X: p.X + u*opts.StepTime, Y: p.Y + v*opts.StepTime}

				cx := int(math.Floor(p.X / cw))
				cy := int(math.Floor(p.Y / ch))
				if cx < 0 || cx >= f.Width() || cy < 0 || cy >= f.Height() || f.IsSolid(cx, cy) {
					break
				}
				line = append(line, p)
			}
			if len(line) > 1 {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
