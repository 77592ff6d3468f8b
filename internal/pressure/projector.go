// Package pressure removes divergence from the velocity field with an in-place
// Gauss-Seidel sweep accelerated by over-relaxation.
package pressure

import (
	"math"

	"github.com/san-kum/fluidsim/internal/grid"
)

type Projector struct {
	// Density scales the accumulated pressure; it does not change the velocities.
	Density float64
	// OverRelaxation multiplies every correction; 1 is plain Gauss-Seidel.
	OverRelaxation float64
	// Tolerance stops the sweeps early once the largest |div| seen in a sweep
	// drops below it. Zero always runs every iteration.
	Tolerance float64
}

type Stats struct {
	Iterations int
	// MaxResidual and MeanResidual describe the divergence met by the last
	// sweep, before its own corrections.
	MaxResidual  float64
	MeanResidual float64
}

// Project runs up to iterations sweeps over the interior fluid cells, pushing
// each cell's divergence onto its fluid neighbours' faces and accumulating the
// implied pressure into g.P. Solid cells and faces adjoining them are never
// modified.
func (pr *Projector) Project(g *grid.Grid, dt float64, iterations int) Stats {
	var stats Stats
	n := g.NumX
	omega := pr.OverRelaxation

	cp := 0.0
	if dt > 0 {
		cp = pr.Density * g.CellHeight() / dt
	}

	for it := 0; it < iterations; it++ {
		maxDiv, sumDiv, cells := 0.0, 0.0, 0

		for y := 1; y < g.NumY-1; y++ {
			for x := 1; x < n-1; x++ {
				i := y*n + x
				if g.S[i] == 0 {
					continue
				}

				sl := g.S[i-1]
				sr := g.S[i+1]
				sb := g.S[i-n]
				st := g.S[i+n]
				s := sl + sr + sb + st
				if s == 0 {
					continue
				}

				div := g.U[i+1] - g.U[i] + g.V[i+n] - g.V[i]
				abs := math.Abs(div)
				maxDiv = math.Max(maxDiv, abs)
				sumDiv += abs
				cells++

				c := -div / s * omega
				g.P[i] += cp * c

				g.U[i] -= sl * c
				g.U[i+1] += sr * c
				g.V[i] -= sb * c
				g.V[i+n] += st * c
			}
		}

		stats.Iterations = it + 1
		stats.MaxResidual = maxDiv
		if cells > 0 {
			stats.MeanResidual = sumDiv / float64(cells)
		}
		if pr.Tolerance > 0 && maxDiv < pr.Tolerance {
			break
		}
	}
	return stats
}
