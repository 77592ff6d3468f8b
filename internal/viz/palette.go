package viz

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/mazznoer/colorgrad"
)

const paletteSize = 256

// Palette is a colour ramp sampled once into a lookup table.
type Palette struct {
	Name   string
	colors []color.RGBA
}

var gradients = map[string]func() colorgrad.Gradient{
	"viridis": colorgrad.Viridis,
	"turbo":   colorgrad.Turbo,
	"rdbu":    colorgrad.RdBu,
	"inferno": colorgrad.Inferno,
	"plasma":  colorgrad.Plasma,
}

func NewPalette(name string) (*Palette, error) {
	build, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q (want one of %s)", name, strings.Join(PaletteNames(), ", "))
	}

	grad := build()
	p := &Palette{Name: name}
	for _, c := range grad.Colors(paletteSize) {
		p.colors = append(p.colors, toRGBA(c))
	}
	return p, nil
}

func mustPalette(name string) *Palette {
	p, err := NewPalette(name)
	if err != nil {
		panic(err)
	}
	return p
}

func PaletteNames() []string {
	names := make([]string, 0, len(gradients))
	for name := range gradients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Palette) Len() int { return len(p.colors) }

// Index maps t in [0,1] to a table slot. NaN maps to 0.
func (p *Palette) Index(t float64) int {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return int(math.Round(t * float64(len(p.colors)-1)))
}

func (p *Palette) At(t float64) color.RGBA { return p.colors[p.Index(t)] }
func (p *Palette) Colors() []color.RGBA { return p.colors }

func toRGBA(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
