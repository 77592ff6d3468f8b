package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"math"
	"os"

	"github.com/san-kum/fluidsim/internal/grid"
)

var ErrNoFrames = errors.New("viz: nothing recorded")

// Recorder collects paletted frames of one scalar view for an animated GIF.
// The last palette slot is reserved for solid cells.
type Recorder struct {
	view    View
	scale   int
	delay   int
	palette color.Palette
	ramp    int
	frames  []*image.Paletted
}

// NewRecorder records view with each cell drawn as a scale x scale block.
// Blend has no fixed palette, so it records the dye field instead.
func NewRecorder(rn *Renderer, view View, scale int) *Recorder {
	if view == ViewBlend {
		view = ViewDye
	}
	if scale < 1 {
		scale = 1
	}
	src := rn.palette(view).Colors()
	ramp := len(src)
	if ramp > 255 {
		ramp = 255
	}

	pal := make(color.Palette, 0, ramp+1)
	for i := 0; i < ramp; i++ {
		pal = append(pal, src[i*(len(src)-1)/max(ramp-1, 1)])
	}
	pal = append(pal, solidColor)

	return &Recorder{view: view, scale: scale, delay: 2, palette: pal, ramp: ramp}
}

func (rc *Recorder) View() View { return rc.view }
func (rc *Recorder) Len() int   { return len(rc.frames) }

// Capture appends the current state of r as one frame.
func (rc *Recorder) Capture(r grid.Reader) {
	w, h := r.Width(), r.Height()
	img := image.NewPaletted(image.Rect(0, 0, w*rc.scale, h*rc.scale), rc.palette)
	solid := uint8(len(rc.palette) - 1)

	values := Normalize(r, rc.view)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := values[y*w+x]
			idx := solid
			if !math.IsNaN(t) {
				idx = uint8(math.Round(t * float64(rc.ramp-1)))
			}
			top := (h - 1 - y) * rc.scale
			for dy := 0; dy < rc.scale; dy++ {
				for dx := 0; dx < rc.scale; dx++ {
					img.SetColorIndex(x*rc.scale+dx, top+dy, idx)
				}
			}
		}
	}
	rc.frames = append(rc.frames, img)
}

func (rc *Recorder) Encode(w io.Writer) error {
	if len(rc.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range rc.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, rc.delay)
	}
	return gif.EncodeAll(w, &anim)
}

func (rc *Recorder) Save(path string) (err error) {
	if len(rc.frames) == 0 {
		return ErrNoFrames
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return rc.Encode(f)
}

func (rc *Recorder) Reset() { rc.frames = rc.frames[:0] }
