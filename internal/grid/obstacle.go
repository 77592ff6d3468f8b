package grid

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidObstacle = errors.New("invalid obstacle")

// Shape reports whether a point, in cell coordinates, lies inside an obstacle.
type Shape interface {
	Contains(x, y float64) bool
}

type Point struct {
	X, Y float64
}

type Circle struct {
	Center Point
	Radius float64
}

func (c Circle) Contains(x, y float64) bool {
	dx, dy := x-c.Center.X, y-c.Center.Y
	return dx*dx+dy*dy < c.Radius*c.Radius
}

// Airfoil is a symmetric NACA 00xx section lying along +x from its leading edge.
// Thickness is the maximum thickness as a fraction of the chord.
type Airfoil struct {
	LeadingEdge Point
	Chord       float64
	Thickness   float64
}

func (a Airfoil) Contains(x, y float64) bool {
	if a.Chord <= 0 {
		return false
	}
	dx := x - a.LeadingEdge.X
	if dx < 0 || dx > a.Chord {
		return false
	}
	return math.Abs(y-a.LeadingEdge.Y) <= a.HalfThickness(dx)
}

// HalfThickness returns the NACA 4-digit half thickness at distance dx from the leading edge.
func (a Airfoil) HalfThickness(dx float64) float64 {
	t := dx / a.Chord
	poly := 0.2969*math.Sqrt(t) - 0.1260*t - 0.3516*t*t + 0.2843*t*t*t - 0.1015*t*t*t*t
	return 5 * a.Thickness * a.Chord * poly
}

// Box covers Min <= p < Max.
type Box struct {
	Min, Max Point
}

func (b Box) Contains(x, y float64) bool {
	return x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y
}

// Pegs is a lattice of equal circles. Odd rows are shifted by half a spacing.
type Pegs struct {
	Origin     Point
	Rows, Cols int
	Spacing    float64
	Radius     float64
}

func (p Pegs) Contains(x, y float64) bool {
	for r := 0; r < p.Rows; r++ {
		shift := 0.0
		if r%2 == 1 {
			shift = p.Spacing / 2
		}
		for c := 0; c < p.Cols; c++ {
			peg := Circle{
				Center: Point{X: p.Origin.X + shift + float64(c)*p.Spacing, Y: p.Origin.Y + float64(r)*p.Spacing},
				Radius: p.Radius,
			}
			if peg.Contains(x, y) {
				return true
			}
		}
	}
	return false
}

// Rasterize marks every cell whose integer coordinates fall inside shape as solid
// and returns how many cells changed from fluid to solid.
func (g *Grid) Rasterize(shape Shape) int {
	if shape == nil {
		return 0
	}
	marked := 0
	for y := 0; y < g.NumY; y++ {
		for x := 0; x < g.NumX; x++ {
			if !shape.Contains(float64(x), float64(y)) {
				continue
			}
			if !g.IsSolid(x, y) {
				marked++
			}
			g.SetSolid(x, y, true)
		}
	}
	return marked
}

// ObstacleSpec is the declarative form of an obstacle, as found in config files.
// X, Y name the circle centre, airfoil leading edge, box corner or lattice origin.
type ObstacleSpec struct {
	Kind      string  `yaml:"kind"`
	X         float64 `yaml:"x,omitempty"`
	Y         float64 `yaml:"y,omitempty"`
	Radius    float64 `yaml:"radius,omitempty"`
	Chord     float64 `yaml:"chord,omitempty"`
	Thickness float64 `yaml:"thickness,omitempty"`
	Width     float64 `yaml:"width,omitempty"`
	Height    float64 `yaml:"height,omitempty"`
	Rows      int     `yaml:"rows,omitempty"`
	Cols      int     `yaml:"cols,omitempty"`
	Spacing   float64 `yaml:"spacing,omitempty"`
}

// Shape builds the obstacle. Kind "none" (or empty) yields a nil shape.
func (o ObstacleSpec) Shape() (Shape, error) {
	at := Point{X: o.X, Y: o.Y}
	switch strings.ToLower(o.Kind) {
	case "", "none":
		return nil, nil
	case "circle":
		if o.Radius <= 0 {
			return nil, fmt.Errorf("%w: circle radius must be positive, got %g", ErrInvalidObstacle, o.Radius)
		}
		return Circle{Center: at, Radius: o.Radius}, nil
	case "airfoil":
		if o.Chord <= 0 || o.Thickness <= 0 {
			return nil, fmt.Errorf("%w: airfoil needs positive chord and thickness", ErrInvalidObstacle)
		}
		return Airfoil{LeadingEdge: at, Chord: o.Chord, Thickness: o.Thickness}, nil
	case "box":
		if o.Width <= 0 || o.Height <= 0 {
			return nil, fmt.Errorf("%w: box needs positive width and height", ErrInvalidObstacle)
		}
		return Box{Min: at, Max: Point{X: o.X + o.Width, Y: o.Y + o.Height}}, nil
	case "pegs":
		if o.Rows <= 0 || o.Cols <= 0 || o.Spacing <= 0 || o.Radius <= 0 {
			return nil, fmt.Errorf("%w: pegs need rows, cols, spacing and radius", ErrInvalidObstacle)
		}
		return Pegs{Origin: at, Rows: o.Rows, Cols: o.Cols, Spacing: o.Spacing, Radius: o.Radius}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidObstacle, o.Kind)
	}
}
