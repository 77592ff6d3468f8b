package metrics

import (
	"math"

	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/solver"
)

// Divergence tracks the largest residual left by the second projection pass.
type Divergence struct {
	name string
	peak float64
}

func NewDivergence() *Divergence {
	return &Divergence{name: "max_divergence"}
}

func (d *Divergence) Name() string { return d.name }

func (d *Divergence) Observe(g *grid.Grid, st solver.Stats) {
	d.peak = math.Max(d.peak, g.MaxDivergence())
}

func (d *Divergence) Value() float64 { return d.peak }
func (d *Divergence) Reset()         { d.peak = 0 }

// MassDrift is the largest relative change of total dye against the first
// observation. Runs with dye sources are expected to drift.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(g *grid.Grid, st solver.Stats) {
	mass := g.TotalDye()
	if m.samples == 0 {
		m.initial = mass
	}
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(mass-m.initial) / math.Abs(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(g *grid.Grid, st solver.Stats) {
	maxU, maxV := g.MaxSpeed()
	p.peak = math.Max(p.peak, math.Max(maxU, maxV))
}

func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset()         { p.peak = 0 }

// Throttle is the fraction of frames whose dt was cut by the CFL limit.
type Throttle struct {
	name      string
	throttled int
	samples   int
}

func NewThrottle() *Throttle {
	return &Throttle{name: "cfl_throttle"}
}

func (t *Throttle) Name() string { return t.name }

func (t *Throttle) Observe(g *grid.Grid, st solver.Stats) {
	t.samples++
	if st.Dt < st.RawDt {
		t.throttled++
	}
}

func (t *Throttle) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return float64(t.throttled) / float64(t.samples)
}

func (t *Throttle) Reset() {
	t.throttled = 0
	t.samples = 0
}
