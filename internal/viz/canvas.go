package viz

import (
	"strings"

	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/streamline"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a dot canvas of Width x Height characters, i.e. (2*Width) x
// (4*Height) dots with the origin at the top left.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) DotWidth() int  { return c.Width * 2 }
func (c *Canvas) DotHeight() int { return c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, bit rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, dotBits[y%4][x%2], true
}

func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.cells[row][col] |= bit
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, bit, ok := c.cell(x, y)
	return ok && c.cells[row][col]&bit != 0
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = brailleBlank
		}
	}
}

// DrawLine uses Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// toDots maps world coordinates (y up) onto dot coordinates (y down).
func (c *Canvas) toDots(x, y, worldW, worldH float64) (int, int) {
	px := int(x / worldW * float64(c.DotWidth()-1))
	py := int((1 - y/worldH) * float64(c.DotHeight()-1))
	return px, py
}

// DrawStreamlines plots polylines given in world coordinates.
func (c *Canvas) DrawStreamlines(lines []streamline.Line, worldW, worldH float64) {
	for _, line := range lines {
		for i := 1; i < len(line); i++ {
			x0, y0 := c.toDots(line[i-1].X, line[i-1].Y, worldW, worldH)
			x1, y1 := c.toDots(line[i].X, line[i].Y, worldW, worldH)
			c.DrawLine(x0, y0, x1, y1)
		}
	}
}

// DrawSolids fills the dots covering solid cells.
func (c *Canvas) DrawSolids(r grid.Reader) {
	w, h := r.Width(), r.Height()
	for py := 0; py < c.DotHeight(); py++ {
		y := h - 1 - py*h/c.DotHeight()
		for px := 0; px < c.DotWidth(); px++ {
			if r.IsSolid(px*w/c.DotWidth(), y) {
				c.Set(px, py)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		b.WriteString(string(row))
		if i < len(c.cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
