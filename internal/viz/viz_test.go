package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(7, 7)
	c.Set(-1, 3)
	c.Set(8, 0)

	if !c.IsSet(0, 0) || !c.IsSet(7, 7) {
		t.Error("expected dots to be lit")
	}
	if c.IsSet(1, 0) {
		t.Error("unexpected dot at (1, 0)")
	}
	if c.Grid[0][0] != brailleBlank|0x1 {
		t.Errorf("cell (0, 0) = %U", c.Grid[0][0])
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("Clear left a dot lit")
	}
}

func TestCanvasDrawBox(t *testing.T) {
	c := NewCanvas(5, 3)
	c.DrawBox(0, 0, 9, 11)
	for _, p := range [][2]int{{0, 0}, {9, 0}, {0, 11}, {9, 11}, {4, 0}, {0, 6}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("box edge (%d, %d) not lit", p[0], p[1])
		}
	}
	if c.IsSet(4, 6) {
		t.Error("box interior lit")
	}
	if got := strings.Count(c.String(), "\n"); got != 3 {
		t.Errorf("String has %d rows, want 3", got)
	}
}

func TestViewportProject(t *testing.T) {
	c := NewCanvas(10, 5) // 20 x 20 sub-pixels
	v := NewViewport(c, 2, 1)

	x, y := v.Project(0, 0)
	if x != 0 {
		t.Errorf("origin x = %d", x)
	}
	_, top := v.Project(0, 1)
	if top >= y {
		t.Errorf("y not flipped: bottom %d top %d", y, top)
	}
	right, _ := v.Project(2, 0)
	if right != 19 {
		t.Errorf("right edge = %d, want 19", right)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		filled   int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{2, 10},
		{-1, 0},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.fraction, 10)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("ProgressBar(%v) filled %d, want %d", tt.fraction, got, tt.filled)
		}
	}
}

func TestThemes(t *testing.T) {
	if len(ThemeNames()) != len(Themes) {
		t.Fatal("theme names out of sync")
	}
	if GetTheme("no-such-theme").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.GetPreset("falling_block")
	if cfg == nil {
		t.Fatal("missing falling_block preset")
	}
	cfg.Duration = 0.05
	g, bodies, bc, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(sim.New(g, bodies, bc), cfg.SimConfig(), "falling block")
}

func TestModelTick(t *testing.T) {
	m := newTestModel(t)

	next, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule another tick")
	}
	m = next.(Model)
	if m.sim.StepCount() != m.stepsPerTick {
		t.Errorf("steps = %d, want %d", m.sim.StepCount(), m.stepsPerTick)
	}
	if len(m.energyHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(m.energyHistory))
	}
	if !strings.Contains(m.View(), "FALLING BLOCK") {
		t.Error("view missing title")
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(t)
	key := func(s string) {
		var msg tea.KeyMsg
		if s == " " {
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}

	key(" ")
	if m.running {
		t.Error("space should pause")
	}
	m, _ = updateModel(m, TickMsg(time.Now()))
	if m.sim.StepCount() != 0 {
		t.Error("paused model stepped")
	}

	key("+")
	if m.stepsPerTick != 20 {
		t.Errorf("stepsPerTick = %d, want 20", m.stepsPerTick)
	}
	key("-")
	key("-")
	if m.stepsPerTick != 5 {
		t.Errorf("stepsPerTick = %d, want 5", m.stepsPerTick)
	}

	key("t")
	if m.theme != 1 {
		t.Errorf("theme = %d, want 1", m.theme)
	}

	key(" ")
	m, _ = updateModel(m, TickMsg(time.Now()))
	key("r")
	if m.sim.StepCount() != 0 || !m.running {
		t.Error("reset should rewind and resume")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestModelStopsAtDuration(t *testing.T) {
	m := newTestModel(t)
	m.stepsPerTick = maxStepsPerTick
	m, _ = updateModel(m, TickMsg(time.Now()))
	if want := 50; m.sim.StepCount() != want {
		t.Errorf("steps = %d, want %d", m.sim.StepCount(), want)
	}
	if !m.finished() {
		t.Error("model should be finished")
	}
	if !strings.Contains(m.View(), "DONE") {
		t.Error("view should report DONE")
	}
}

func updateModel(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}
