package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fluidsim/internal/solver"
	"github.com/san-kum/fluidsim/internal/streamline"
)

const (
	defaultCols     = 80
	defaultRows     = 20
	historyCapacity = 300
	panelWidth      = 46
	recordScale     = 4
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a solver once per tick and draws its fields.
type Model struct {
	solver      *solver.Solver
	renderer    *Renderer
	theme       Theme
	styles      styles
	scene       string
	dt          float64
	view        View
	cols, rows  int
	running     bool
	streamlines bool
	showHelp    bool
	divHistory  []float64
	massHistory []float64
	recorder    *Recorder
	recordPath  string
	status      string
}

func NewModel(s *solver.Solver, dt float64, scene string) Model {
	theme := Themes[0]
	return Model{
		solver:      s,
		renderer:    NewRenderer(),
		theme:       theme,
		styles:      newStyles(theme),
		scene:       scene,
		dt:          dt,
		view:        ViewBlend,
		cols:        defaultCols,
		rows:        defaultRows,
		running:     true,
		divHistory:  make([]float64, 0, historyCapacity),
		massHistory: make([]float64, 0, historyCapacity),
		recordPath:  "fluidsim.gif",
	}
}

// SetView picks the field shown first.
func (m *Model) SetView(v View) { m.view = v }

// SetRecordPath sets where G writes the animation.
func (m *Model) SetRecordPath(path string) { m.recordPath = path }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopRecording()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "v":
			m.view = m.view.Next()
		case "i":
			m.solver.SetInjectorsEnabled(!m.solver.InjectorsEnabled())
		case "s":
			m.streamlines = !m.streamlines
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "g":
			if m.recorder != nil {
				m.stopRecording()
			} else {
				m.recorder = NewRecorder(m.renderer, m.view, recordScale)
				m.status = "recording " + m.recorder.View().String()
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) resize(w, h int) {
	m.cols = max(10, w-panelWidth-4)
	m.rows = max(5, h-2)
}

func (m *Model) step() {
	m.solver.Step(m.dt)
	g := m.solver.Grid()

	m.divHistory = appendCapped(m.divHistory, g.MaxDivergence())
	m.massHistory = appendCapped(m.massHistory, g.TotalDye())
	if m.recorder != nil {
		m.recorder.Capture(g)
	}
}

func (m *Model) reset() {
	m.solver.Reset()
	m.divHistory = m.divHistory[:0]
	m.massHistory = m.massHistory[:0]
	if m.recorder != nil {
		m.recorder.Reset()
	}
	m.status = "reset"
}

func (m *Model) stopRecording() {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Save(m.recordPath); err != nil {
		m.status = "record: " + err.Error()
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), m.recordPath)
	}
	m.recorder = nil
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m Model) fieldView() string {
	g := m.solver.Grid()
	if !m.streamlines {
		return m.renderer.Render(g, m.view, m.cols, m.rows)
	}
	c := NewCanvas(m.cols, m.rows)
	c.DrawSolids(g)
	c.DrawStreamlines(m.solver.Streamlines(streamline.DefaultOptions()), g.CanvasWidth(), g.CanvasHeight())
	return c.String()
}

func (m Model) View() string {
	st := m.solver.Stats()
	cfg := m.solver.Config()
	s := m.styles

	var b strings.Builder
	b.WriteString(s.header.Render(strings.ToUpper(m.scene)) + "\n")

	if m.recorder != nil {
		b.WriteString(s.alert.Render(fmt.Sprintf("● REC %d", m.recorder.Len())) + "  ")
	}
	if m.running {
		b.WriteString(s.running.Render("RUNNING"))
	} else {
		b.WriteString(s.paused.Render("PAUSED"))
	}
	b.WriteString("\n\n")

	b.WriteString(s.row("Mode", cfg.Mode.String()))
	b.WriteString(s.row("Grid", fmt.Sprintf("%dx%d", cfg.XCells, cfg.YCells)))
	b.WriteString(s.row("Frame", fmt.Sprintf("%d", st.Frame)))
	b.WriteString(s.row("Time", fmt.Sprintf("%.2fs", st.Time)))
	b.WriteString(s.row("dt", fmt.Sprintf("%.4f", st.Dt)))
	b.WriteString(s.row("Sweeps", fmt.Sprintf("%d + %d", st.First.Iterations, st.Second.Iterations)))
	b.WriteString(s.row("Residual", fmt.Sprintf("%.2e", st.Second.MaxResidual)))
	b.WriteString(s.row("View", m.view.String()))
	b.WriteString(s.row("Injectors", onOff(m.solver.InjectorsEnabled())))

	if cfg.MaxCFL > 0 {
		cfl := m.solver.CFL(st.Dt)
		b.WriteString(s.label.Render("CFL") + s.ProgressBar(cfl/cfg.MaxCFL, 16) + s.value.Render(fmt.Sprintf(" %.2f", cfl)) + "\n")
	}
	b.WriteString(s.label.Render("Dye") + s.Sparkline(m.massHistory, 24) + "\n")

	if len(m.divHistory) > 1 {
		chart := asciigraph.Plot(m.divHistory, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("max |div|"))
		b.WriteString(s.graph.Render(chart) + "\n")
	}
	if m.status != "" {
		b.WriteString(s.value.Render(m.status) + "\n")
	}
	b.WriteString(s.help.Render("SP pause  . step  R reset  V view\nI jets  S lines  G record  T theme\n? help  Q quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, s.field.Render(m.fieldView()), s.panel.Render(b.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

const helpText = `
  Space  pause / resume       .  single step while paused
  R      reset the scene      V  cycle dye, pressure, speed, blend
  I      toggle injectors     S  toggle streamlines
  G      start/stop GIF       T  cycle theme
  ?      toggle this help     Q  quit
`
