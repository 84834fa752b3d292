package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mpmsim/internal/metrics"
	"github.com/san-kum/mpmsim/internal/sim"
)

const (
	canvasWidth     = 72
	canvasHeight    = 24
	historyCapacity = 600
	maxStepsPerTick = 512
)

type TickMsg time.Time

// Model steps a simulator a few steps per frame and draws its particles.
type Model struct {
	sim   *sim.Simulator
	cfg   sim.Config
	title string

	canvas   *Canvas
	view     Viewport
	styles   styles
	theme    int
	running  bool
	showHelp bool

	stepsPerTick  int
	energyHistory []float64
	err           error
}

// NewModel wraps s; cfg supplies dt, the run length and the worker count.
func NewModel(s *sim.Simulator, cfg sim.Config, title string) Model {
	c := NewCanvas(canvasWidth, canvasHeight)
	g := s.Grid()
	m := Model{
		sim:           s,
		cfg:           cfg,
		title:         title,
		canvas:        c,
		view:          NewViewport(c, g.Width(), g.Height()),
		styles:        newStyles(Themes[0]),
		running:       true,
		stepsPerTick:  10,
		energyHistory: make([]float64, 0, historyCapacity),
	}
	m.record()
	m.draw()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.finished() {
			m.advance()
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m *Model) finished() bool {
	return m.err != nil || m.sim.Time() >= m.cfg.Duration-m.cfg.Dt/2
}

// advance runs up to stepsPerTick steps, stopping at the first failure.
func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick && !m.finished(); i++ {
		if err := m.sim.Step(m.cfg); err != nil {
			m.err = err
			m.running = false
			return
		}
	}
	m.record()
}

func (m *Model) record() {
	bodies := m.sim.Bodies()
	m.energyHistory = append(m.energyHistory, metrics.KineticEnergy(bodies)+metrics.StrainEnergy(bodies))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) reset() {
	m.sim.Reset()
	m.err = nil
	m.running = true
	m.energyHistory = m.energyHistory[:0]
	m.record()
}

func (m *Model) draw() {
	m.canvas.Clear()
	g := m.sim.Grid()
	x0, y0 := m.view.Project(0, 0)
	x1, y1 := m.view.Project(g.Width(), g.Height())
	m.canvas.DrawBox(x0, y1, x1, y0)

	for _, b := range m.sim.Bodies() {
		for _, x := range b.X {
			m.canvas.Set(m.view.Project(x[0], x[1]))
		}
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.err.Render("FAILED")
	case m.finished():
		return m.styles.value.Render("DONE")
	case !m.running:
		return m.styles.warn.Render("PAUSED")
	}
	return m.styles.value.Render("RUNNING")
}

func (m Model) View() string {
	st := m.styles
	bodies := m.sim.Bodies()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4fs / %.2fs", m.sim.Time(), m.cfg.Duration))
	row("Step", fmt.Sprintf("%d (x%d/frame)", m.sim.StepCount(), m.stepsPerTick))
	row("Particles", fmt.Sprintf("%d in %d bodies", m.sim.ParticleCount(), len(bodies)))
	row("Kinetic", fmt.Sprintf("%.4g", metrics.KineticEnergy(bodies)))
	row("Strain", fmt.Sprintf("%.4g", metrics.StrainEnergy(bodies)))
	row("Volume ratio", fmt.Sprintf("%.5f", metrics.VolumeRatio(bodies)))
	row("Progress", ProgressBar(m.sim.Time()/m.cfg.Duration, 20))

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("KE + SE"))
		s.WriteString(st.graph.Render(chart) + "\n")
	} else {
		s.WriteString(st.graph.Render(Sparkline(m.energyHistory, 30)) + "\n")
	}

	if m.err != nil {
		s.WriteString(st.err.Render(wrap(m.err.Error(), 40)) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\n+/-:Speed T:Theme ?:Help"))

	canvasView := st.canvas.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return st.help.Render(helpText) + "\n\n" + mainView
	}
	return mainView
}

const helpText = `Space  pause / resume
R      reset to the initial particles
+ / -  double / halve steps per frame
T      cycle colour theme
Q      quit`

func wrap(s string, n int) string {
	var b strings.Builder
	line := 0
	for _, w := range strings.Fields(s) {
		if line > 0 && line+len(w) > n {
			b.WriteByte('\n')
			line = 0
		} else if line > 0 {
			b.WriteByte(' ')
			line++
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}

// Run opens the live view in the alternate screen until the user quits.
func Run(s *sim.Simulator, cfg sim.Config, title string) error {
	_, err := tea.NewProgram(NewModel(s, cfg, title), tea.WithAltScreen()).Run()
	return err
}
