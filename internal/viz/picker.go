package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/solver"
)

var sceneInfo = map[string]string{
	"wind_tunnel/empty":     "uniform inflow, dye bands",
	"wind_tunnel/cylinder":  "vortex street behind a disc",
	"wind_tunnel/airfoil":   "NACA profile at zero incidence",
	"wind_tunnel/box":       "bluff body wake",
	"wind_tunnel/pegs":      "staggered peg lattice",
	"gravity_tank/still":    "dye settling under gravity",
	"gravity_tank/injector": "side jet into a closed tank",
	"gravity_tank/pegs":     "jet through a peg lattice",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type tunable struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var tunables = []tunable{
	{"iterations", 10,
		func(c *config.Config) float64 { return float64(c.Fluid.Iterations) },
		func(c *config.Config, v float64) { c.Fluid.Iterations = max(1, int(v)) }},
	{"omega", 0.05,
		func(c *config.Config) float64 { return c.Fluid.OverRelaxation },
		func(c *config.Config, v float64) { c.Fluid.OverRelaxation = min(max(v, 1), 1.99) }},
	{"inflow", 5,
		func(c *config.Config) float64 { return c.InflowSpeed },
		func(c *config.Config, v float64) { c.InflowSpeed = v }},
	{"gravity", 1,
		func(c *config.Config) float64 { return c.Gravity },
		func(c *config.Config, v float64) { c.Gravity = v }},
	{"max_cfl", 0.5,
		func(c *config.Config) float64 { return c.Fluid.MaxCFL },
		func(c *config.Config, v float64) { c.Fluid.MaxCFL = max(v, 0.5) }},
}

// Picker lets the user choose a preset, adjust a few constants and then hands
// over to the live Model.
type Picker struct {
	state       int
	cursor      int
	scenes      []string
	cfg         *config.Config
	paramCursor int
	err         error
	live        Model
}

func NewPicker() *Picker {
	var scenes []string
	for _, mode := range config.ListModes() {
		for _, preset := range config.ListPresets(mode) {
			scenes = append(scenes, mode+"/"+preset)
		}
	}
	return &Picker{state: stateMenu, scenes: scenes}
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(key)
	case stateConfig:
		return m.configKey(key)
	}
	return m, nil
}

func (m Picker) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenes)-1 {
			m.cursor++
		}
	case "enter", " ":
		mode, preset, _ := strings.Cut(m.scenes[m.cursor], "/")
		m.cfg = config.GetPreset(mode, preset)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m Picker) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := tunables[m.paramCursor]
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(tunables)-1 {
			m.paramCursor++
		}
	case "left", "h":
		t.set(m.cfg, t.get(m.cfg)-t.step)
	case "right", "l":
		t.set(m.cfg, t.get(m.cfg)+t.step)
	case "enter", "s":
		return m.start()
	}
	return m, nil
}

func (m Picker) start() (tea.Model, tea.Cmd) {
	sc, err := m.cfg.SolverConfig()
	if err != nil {
		m.err = err
		return m, nil
	}
	s, err := solver.New(sc)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live = NewModel(s, m.cfg.Dt, m.scenes[m.cursor])
	m.state = stateSim
	return m, m.live.Init()
}

var (
	pickTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	pickSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	pickArrow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	pickActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	pickDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	pickIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	pickKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	pickErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func (m Picker) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func keyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(pickKey.Render(pairs[i]) + pickIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m Picker) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + pickTitle.Render("FLUIDSIM") + "\n    " + pickSub.Render("incompressible MAC-grid solver") + "\n    " + pickSub.Render("──────────────────────────────") + "\n\n")
	for i, name := range m.scenes {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pickArrow.Render("▸"), pickActive.Render(fmt.Sprintf("%-22s", name)), pickDesc.Render(sceneInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", pickIdle.Render(fmt.Sprintf("%-22s", name)), pickIdle.Render(sceneInfo[name])))
		}
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m Picker) viewConfig() string {
	var b strings.Builder
	name := m.scenes[m.cursor]
	b.WriteString("\n\n    " + pickTitle.Render(strings.ToUpper(name)) + "\n    " + pickSub.Render(sceneInfo[name]) + "\n    " + pickSub.Render("──────────────────────────────") + "\n\n")
	for i, t := range tunables {
		val := fmt.Sprintf("%8.2f", t.get(m.cfg))
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", pickArrow.Render("▸"), pickActive.Render(fmt.Sprintf("%-12s", t.name)), pickDesc.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", pickIdle.Render(fmt.Sprintf("%-12s", t.name)), pickIdle.Render(val)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + pickErr.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

func RunPicker() error {
	_, err := tea.NewProgram(NewPicker(), tea.WithAltScreen()).Run()
	return err
}
