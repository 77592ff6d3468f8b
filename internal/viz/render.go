package viz

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fluidsim/internal/grid"
)

// View selects which field the renderer colours.
type View int

const (
	ViewDye View = iota
	ViewPressure
	ViewSpeed
	ViewBlend
)

var viewNames = []string{"dye", "pressure", "speed", "blend"}

func (v View) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

func (v View) Next() View { return (v + 1) % View(len(viewNames)) }

func ParseView(s string) (View, error) {
	for i, name := range viewNames {
		if strings.EqualFold(s, name) {
			return View(i), nil
		}
	}
	return ViewDye, fmt.Errorf("unknown view %q (want one of %s)", s, strings.Join(viewNames, ", "))
}

// Blend tuning: pressure shows as a dim tint behind brighter dye.
const (
	pressureBlend = 0.5
	pressureValue = 0.25
	dyeFloor      = 0.08
	dyeGamma      = 0.7
)

var solidColor = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}

// Renderer turns a grid into colours. It only reads the grid.
type Renderer struct {
	Dye      *Palette
	Pressure *Palette
	Speed    *Palette
}

func NewRenderer() *Renderer {
	return &Renderer{
		Dye:      mustPalette("viridis"),
		Pressure: mustPalette("rdbu"),
		Speed:    mustPalette("turbo"),
	}
}

func (rn *Renderer) palette(view View) *Palette {
	switch view {
	case ViewPressure:
		return rn.Pressure
	case ViewSpeed:
		return rn.Speed
	default:
		return rn.Dye
	}
}

// Normalize maps the chosen field to [0,1] over the fluid cells, bottom row
// first. Solid cells are NaN. Pressure is flipped so that high pressure sits
// at the warm end of a diverging ramp.
func Normalize(r grid.Reader, view View) []float64 {
	w, h := r.Width(), r.Height()
	out := make([]float64, w*h)

	value := func(x, y int) float64 {
		switch view {
		case ViewPressure:
			return -r.PressureAt(x, y)
		case ViewSpeed:
			u, v := r.CenterVelocity(x, y)
			return math.Hypot(u, v)
		default:
			return r.ScalarAt(x, y)
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if r.IsSolid(x, y) {
				out[i] = math.NaN()
				continue
			}
			v := value(x, y)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			out[i] = v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	rng := math.Max(hi-lo, 1e-6)
	for i, v := range out {
		if !math.IsNaN(v) {
			out[i] = (v - lo) / rng
		}
	}
	return out
}

// Colors returns one colour per cell, bottom row first.
func (rn *Renderer) Colors(r grid.Reader, view View) []color.RGBA {
	out := make([]color.RGBA, r.Width()*r.Height())

	if view == ViewBlend {
		dye := Normalize(r, ViewDye)
		pres := Normalize(r, ViewPressure)
		for i := range out {
			if math.IsNaN(dye[i]) {
				out[i] = solidColor
				continue
			}
			out[i] = blend(rn.Pressure.At(pres[i]), dye[i])
		}
		return out
	}

	pal := rn.palette(view)
	for i, t := range Normalize(r, view) {
		if math.IsNaN(t) {
			out[i] = solidColor
			continue
		}
		out[i] = pal.At(t)
	}
	return out
}

// blend mixes a dimmed pressure tint with a gamma-lifted gray for the dye.
func blend(tint color.RGBA, dye float64) color.RGBA {
	gray := dyeFloor + (1-dyeFloor)*math.Pow(dye, dyeGamma)
	mix := func(p uint8) uint8 {
		v := (1-pressureBlend)*gray*255 + pressureBlend*float64(p)*pressureValue
		return uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
	return color.RGBA{R: mix(tint.R), G: mix(tint.G), B: mix(tint.B), A: 0xff}
}

// Render draws the field with upper half blocks, two cell rows per text line,
// scaled to cols x rows characters. Row 0 of the grid ends up at the bottom.
func (rn *Renderer) Render(r grid.Reader, view View, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	w, h := r.Width(), r.Height()
	colors := rn.Colors(r, view)
	cellAt := func(px, py int) color.RGBA {
		x := px * w / cols
		y := h - 1 - py*h/(rows*2)
		return colors[y*w+x]
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := cellAt(col, row*2)
			bottom := cellAt(col, row*2+1)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(rgbHex(top))).
				Background(lipgloss.Color(rgbHex(bottom)))
			b.WriteString(style.Render("▀"))
		}
		if row < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func rgbHex(c color.RGBA) string {
	return hexColor(int(c.R), int(c.G), int(c.B))
}
