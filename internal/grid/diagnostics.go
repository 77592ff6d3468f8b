package grid

import "math"

// Divergence returns the net outflow of cell (x, y):
// u(x+1,y) - u(x,y) + v(x,y+1) - v(x,y).
// Cells in the last column or row have no outer face and report 0.
func (g *Grid) Divergence(x, y int) float64 {
	i := g.Index(x, y)
	if x+1 >= g.NumX || y+1 >= g.NumY {
		return 0
	}
	return g.U[i+1] - g.U[i] + g.V[i+g.NumX] - g.V[i]
}

// MaxDivergence is the largest |div| over interior fluid cells.
func (g *Grid) MaxDivergence() float64 {
	worst := 0.0
	g.eachInteriorFluid(func(i int) {
		worst = math.Max(worst, math.Abs(g.div(i)))
	})
	return worst
}

// MeanAbsDivergence averages |div| over interior fluid cells.
func (g *Grid) MeanAbsDivergence() float64 {
	sum, count := 0.0, 0
	g.eachInteriorFluid(func(i int) {
		sum += math.Abs(g.div(i))
		count++
	})
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// TotalDye sums the dye held by fluid cells.
func (g *Grid) TotalDye() float64 {
	total := 0.0
	for i, s := range g.S {
		if s != 0 {
			total += g.D[i]
		}
	}
	return total
}

// MaxSpeed returns the largest face speed on each axis over fluid cells.
func (g *Grid) MaxSpeed() (maxU, maxV float64) {
	for i, s := range g.S {
		if s == 0 {
			continue
		}
		maxU = math.Max(maxU, math.Abs(g.U[i]))
		maxV = math.Max(maxV, math.Abs(g.V[i]))
	}
	return maxU, maxV
}

func (g *Grid) div(i int) float64 {
	return g.U[i+1] - g.U[i] + g.V[i+g.NumX] - g.V[i]
}

func (g *Grid) eachInteriorFluid(fn func(i int)) {
	n := g.NumX
	for y := 1; y < g.NumY-1; y++ {
		for x := 1; x < n-1; x++ {
			i := y*n + x
			if g.S[i] != 0 {
				fn(i)
			}
		}
	}
}
