package grid

// Reader is the read-only view renderers and exporters consume.
type Reader interface {
	Width() int
	Height() int
	CellWidth() float64
	CellHeight() float64
	VelocityAt(x, y int) (u, v float64)
	CenterVelocity(x, y int) (u, v float64)
	ScalarAt(x, y int) float64
	PressureAt(x, y int) float64
	IsSolid(x, y int) bool
	Sample(x, y float64, f Field) float64
}

// Snapshot is an immutable copy of a grid taken between steps. It is safe to
// hand to another goroutine while the solver keeps stepping.
type Snapshot struct {
	g *Grid
}

func (g *Grid) Snapshot() *Snapshot {
	return &Snapshot{g: g.Clone()}
}

func (s *Snapshot) Width() int            { return s.g.NumX }
func (s *Snapshot) Height() int           { return s.g.NumY }
func (s *Snapshot) CellWidth() float64    { return s.g.cw }
func (s *Snapshot) CellHeight() float64   { return s.g.ch }
func (s *Snapshot) CanvasWidth() float64  { return s.g.width }
func (s *Snapshot) CanvasHeight() float64 { return s.g.height }

func (s *Snapshot) VelocityAt(x, y int) (float64, float64)     { return s.g.VelocityAt(x, y) }
func (s *Snapshot) CenterVelocity(x, y int) (float64, float64) { return s.g.CenterVelocity(x, y) }
func (s *Snapshot) ScalarAt(x, y int) float64                  { return s.g.ScalarAt(x, y) }
func (s *Snapshot) PressureAt(x, y int) float64                { return s.g.PressureAt(x, y) }
func (s *Snapshot) IsSolid(x, y int) bool                      { return s.g.IsSolid(x, y) }
func (s *Snapshot) Divergence(x, y int) float64                { return s.g.Divergence(x, y) }
func (s *Snapshot) MaxDivergence() float64                     { return s.g.MaxDivergence() }
func (s *Snapshot) TotalDye() float64                          { return s.g.TotalDye() }

func (s *Snapshot) Sample(x, y float64, f Field) float64 {
	return s.g.Sample(x, y, f)
}

// Grid returns a mutable copy of the snapshot.
func (s *Snapshot) Grid() *Grid {
	return s.g.Clone()
}
