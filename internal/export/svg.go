// Package export writes solver state as SVG drawings.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/streamline"
	"github.com/san-kum/fluidsim/internal/viz"
)

type SVGOptions struct {
	// Scale is the SVG size of one cell in pixels.
	Scale float64
	// Fill colours fluid cells by the chosen view when set.
	Fill        bool
	View        viz.View
	StrokeColor string
	SolidColor  string
	Background  string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Scale:       6,
		View:        viz.ViewDye,
		StrokeColor: "#00ff88",
		SolidColor:  "#404040",
		Background:  "#0a0a0a",
	}
}

// FieldToSVG draws the obstacle mask, optionally the coloured field, and the
// given streamlines. Grid row 0 is drawn at the bottom.
func FieldToSVG(r grid.Reader, lines []streamline.Line, opts SVGOptions) string {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	w, h := r.Width(), r.Height()
	width := float64(w) * opts.Scale
	height := float64(h) * opts.Scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, opts.Background))

	top := func(y int) float64 { return float64(h-1-y) * opts.Scale }

	if opts.Fill {
		colors := viz.NewRenderer().Colors(r, opts.View)
		sb.WriteString(`<g stroke="none">` + "\n")
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if r.IsSolid(x, y) {
					continue
				}
				c := colors[y*w+x]
				sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#%02x%02x%02x"/>
`, float64(x)*opts.Scale, top(y), opts.Scale, opts.Scale, c.R, c.G, c.B))
			}
		}
		sb.WriteString("</g>\n")
	}

	// solids as one rect per horizontal run
	sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", opts.SolidColor))
	for y := 0; y < h; y++ {
		for x := 0; x < w; {
			if !r.IsSolid(x, y) {
				x++
				continue
			}
			start := x
			for x < w && r.IsSolid(x, y) {
				x++
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>
`, float64(start)*opts.Scale, top(y), float64(x-start)*opts.Scale, opts.Scale))
		}
	}
	sb.WriteString("</g>\n")

	cw, ch := r.CellWidth(), r.CellHeight()
	sb.WriteString(fmt.Sprintf(`<g fill="none" stroke="%s" stroke-width="1">`+"\n", opts.StrokeColor))
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		sb.WriteString(`<path d="M`)
		for i, p := range line {
			x := p.X / cw * opts.Scale
			y := height - p.Y/ch*opts.Scale
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(`"/>` + "\n")
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func WriteSVG(path string, r grid.Reader, lines []streamline.Line, opts SVGOptions) error {
	return os.WriteFile(path, []byte(FieldToSVG(r, lines, opts)), 0644)
}
