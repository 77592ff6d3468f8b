package solver_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fluidsim/internal/forcing"
	"github.com/san-kum/fluidsim/internal/grid"
	"github.com/san-kum/fluidsim/internal/solver"
	"github.com/san-kum/fluidsim/internal/timestep"
)

const frameDt = 1.0 / 60

func unitConfig(nx, ny int, mode forcing.Mode) solver.Config {
	cfg := solver.DefaultConfig()
	cfg.XCells, cfg.YCells = nx, ny
	cfg.CanvasWidth, cfg.CanvasHeight = float64(nx), float64(ny)
	cfg.Mode = mode
	cfg.Iterations = 100
	cfg.InflowSpeed = 5
	return cfg
}

// seedVortex writes a discretely divergence-free Gaussian vortex derived from
// a stream function that vanishes on the walls.
func seedVortex(g *grid.Grid, amp, sigma float64) {
	nx, ny := g.NumX, g.NumY
	cx, cy := float64(nx)/2, float64(ny)/2
	psi := func(i, j int) float64 {
		if i <= 1 || j <= 1 || i >= nx-1 || j >= ny-1 {
			return 0
		}
		dx, dy := float64(i)-cx, float64(j)-cy
		return amp * math.Exp(-(dx*dx+dy*dy)/(sigma*sigma))
	}
	for y := 1; y < ny-1; y++ {
		for x := 1; x < nx; x++ {
			g.SetU(x, y, psi(x, y+1)-psi(x, y))
		}
	}
	for y := 1; y < ny; y++ {
		for x := 1; x < nx-1; x++ {
			g.SetV(x, y, -(psi(x+1, y) - psi(x, y)))
		}
	}
}

func expectSolidsAtRest(s *solver.Solver) {
	g := s.Grid()
	for y := 0; y < g.NumY; y++ {
		for x := 0; x < g.NumX; x++ {
			if !s.IsSolid(x, y) {
				continue
			}
			u, v := s.VelocityAt(x, y)
			Expect(u).To(BeZero(), "u at solid (%d,%d)", x, y)
			Expect(v).To(BeZero(), "v at solid (%d,%d)", x, y)
		}
	}
}

var _ = Describe("Solver", func() {
	Describe("wind tunnel startup", func() {
		var s *solver.Solver

		BeforeEach(func() {
			var err error
			s, err = solver.New(unitConfig(52, 52, forcing.ModeWindTunnel))
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 100; i++ {
				s.Step(frameDt)
			}
		})

		It("carries the inflow speed to the outflow column", func() {
			last := s.Grid().NumX - 1
			sum := 0.0
			for y := 1; y < s.Grid().NumY-1; y++ {
				u, _ := s.VelocityAt(last, y)
				Expect(u).To(BeNumerically("~", 5, 0.25), "outflow row %d", y)
				sum += u
			}
			Expect(sum / 50).To(BeNumerically("~", 5, 0.1))
		})

		It("keeps the walls free of vertical flow", func() {
			g := s.Grid()
			for x := 0; x < g.NumX; x++ {
				_, bottom := s.VelocityAt(x, 0)
				_, top := s.VelocityAt(x, g.NumY-1)
				_, firstFace := s.VelocityAt(x, 1)
				Expect(bottom).To(BeZero())
				Expect(top).To(BeZero())
				Expect(firstFace).To(BeZero())
			}
		})

		It("leaves a nearly divergence-free field", func() {
			Expect(s.Grid().MeanAbsDivergence()).To(BeNumerically("<", 1e-3))
		})

		It("counts frames and time", func() {
			st := s.Stats()
			Expect(st.Frame).To(Equal(100))
			Expect(st.Time).To(BeNumerically("~", 100*frameDt, 1e-9))
		})
	})

	Describe("gravity tank", func() {
		var (
			cfg solver.Config
			s   *solver.Solver
		)

		BeforeEach(func() {
			cfg = unitConfig(22, 22, forcing.ModeGravityTank)
			cfg.Gravity = -9.8
			var err error
			s, err = solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("pulls every fluid face down by gravity before projection", func() {
			g := s.Snapshot().Grid()
			stage := &forcing.Stage{Mode: forcing.ModeGravityTank, Gravity: cfg.Gravity}
			stage.Apply(g, frameDt)

			for y := 2; y < g.NumY-1; y++ {
				for x := 1; x < g.NumX-1; x++ {
					_, v := g.VelocityAt(x, y)
					Expect(v).To(BeNumerically("~", cfg.Gravity*frameDt, 1e-12))
				}
			}
		})

		It("projects the falling column back to rest", func() {
			dt := s.Step(frameDt)
			Expect(dt).To(Equal(frameDt))

			g := s.Grid()
			jump := math.Abs(cfg.Gravity * dt)
			Expect(g.MeanAbsDivergence()).To(BeNumerically("<", 0.01*jump))
			_, maxV := g.MaxSpeed()
			Expect(maxV).To(BeNumerically("<", 0.05*jump))
		})

		It("builds hydrostatic pressure", func() {
			s.Step(frameDt)
			mid := s.Grid().NumX / 2
			Expect(s.PressureAt(mid, 1)).To(BeNumerically(">", s.PressureAt(mid, s.Grid().NumY-2)))
		})
	})

	Describe("obstacle shielding", func() {
		It("keeps the obstacle solid and at rest", func() {
			cfg := unitConfig(62, 42, forcing.ModeWindTunnel)
			cfg.Iterations = 40
			circle := grid.Circle{Center: grid.Point{X: 20, Y: 21}, Radius: 6}
			cfg.Obstacle = circle
			cfg.DyeSources = forcing.Bands(3, 5, 36, 4, 8, 1)
			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 60; i++ {
				s.Step(frameDt)
				for y := 0; y < cfg.YCells; y++ {
					for x := 0; x < cfg.XCells; x++ {
						if !circle.Contains(float64(x), float64(y)) {
							continue
						}
						Expect(s.IsSolid(x, y)).To(BeTrue())
						u, v := s.VelocityAt(x, y)
						Expect(u).To(BeZero())
						Expect(v).To(BeZero())
					}
				}
				expectSolidsAtRest(s)
			}
		})
	})

	Describe("dye transport", func() {
		It("conserves dye in a closed vortex", func() {
			cfg := unitConfig(42, 42, forcing.ModeGravityTank)
			cfg.Gravity = 0
			cfg.Iterations = 50
			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			g := s.Grid()
			seedVortex(g, 1.4, 6)
			for y := 1; y < g.NumY-1; y++ {
				for x := 1; x < g.NumX-1; x++ {
					dx, dy := float64(x)+0.5-25, float64(y)+0.5-21
					g.SetDye(x, y, math.Exp(-(dx*dx+dy*dy)/16))
				}
			}
			mass0 := g.TotalDye()

			for i := 0; i < 100; i++ {
				Expect(s.Step(0.1)).To(BeNumerically(">", 0))
			}

			drift := math.Abs(s.Grid().TotalDye()-mass0) / mass0
			Expect(drift).To(BeNumerically("<", 0.02))
		})
	})

	Describe("time step control", func() {
		It("never exceeds the CFL limit", func() {
			cfg := unitConfig(32, 22, forcing.ModeWindTunnel)
			cfg.InflowSpeed = 400
			cfg.MaxCFL = 1
			cfg.CFLMode = timestep.CFLSum
			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 20; i++ {
				raw := 0.05
				cflBefore := s.CFL(raw)
				dt := s.Step(raw)
				Expect(dt).To(BeNumerically("<=", raw))
				if cflBefore > cfg.MaxCFL {
					Expect(dt).To(BeNumerically("<", raw))
				}
			}
		})

		It("skips frames with an unusable dt", func() {
			s, err := solver.New(unitConfig(12, 12, forcing.ModeWindTunnel))
			Expect(err).NotTo(HaveOccurred())

			for _, raw := range []float64{0, -1, math.NaN(), math.Inf(1)} {
				Expect(s.Step(raw)).To(BeZero())
			}
			Expect(s.Stats().Frame).To(BeZero())
		})
	})

	Describe("reset", func() {
		It("returns to the constructed state", func() {
			cfg := unitConfig(30, 20, forcing.ModeWindTunnel)
			cfg.Obstacle = grid.Circle{Center: grid.Point{X: 10, Y: 10}, Radius: 3}
			s, err := solver.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 5; i++ {
				s.Step(frameDt)
			}

			s.Reset()

			Expect(s.Stats()).To(Equal(solver.Stats{}))
			Expect(s.IsSolid(10, 10)).To(BeTrue())
			u, v := s.VelocityAt(5, 5)
			Expect(u).To(BeZero())
			Expect(v).To(BeZero())
		})
	})
})
