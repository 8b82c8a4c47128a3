package viz

import (
	"fmt"
	"math/bits"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/walks/internal/sim"
	"github.com/san-kum/walks/internal/walk"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultCanvasWidth  = 70
	defaultCanvasHeight = 18
)

// StepMsg carries a copy of the ensemble after a step.
type StepMsg struct {
	Step int
	T    float64
	Pos  walk.Positions
}

// DoneMsg reports the end of a run and its final ensemble.
type DoneMsg struct {
	Err error
	Pos walk.Positions
}

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// LiveObserver forwards at most fps snapshots per second to a running
// program. It copies the borrowed positions before sending.
type LiveObserver struct {
	sender   Sender
	interval time.Duration
	last     time.Time
}

func NewLiveObserver(sender Sender, fps int) *LiveObserver {
	if fps <= 0 {
		fps = 30
	}
	return &LiveObserver{sender: sender, interval: time.Second / time.Duration(fps)}
}

func (o *LiveObserver) OnStep(step int, t float64, pos walk.Positions) {
	now := time.Now()
	if now.Sub(o.last) < o.interval {
		return
	}
	o.last = now
	o.sender.Send(StepMsg{Step: step, T: t, Pos: pos.Clone()})
}

// LiveModel is the Bubble Tea model of the live view.
type LiveModel struct {
	title  string
	steps  int
	theme  Theme
	canvas *Canvas
	fitted bool
	frozen bool

	step int
	t    float64
	pos  walk.Positions
	mean []float64
	done bool
	err  error
}

func NewLiveModel(title string, steps int) LiveModel {
	return LiveModel{
		title:  title,
		steps:  steps,
		theme:  Themes[0],
		canvas: NewCanvas(defaultCanvasWidth, defaultCanvasHeight),
	}
}

func (m LiveModel) Init() tea.Cmd { return nil }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "t":
			m.theme = m.theme.next()
		case "f":
			m.fitted = false
			m.redraw()
		}
	case tea.WindowSizeMsg:
		w := max(msg.Width-4, 10)
		h := max(msg.Height-8, 4)
		bounds := m.canvas.Bounds
		m.canvas = NewCanvas(w, h)
		m.canvas.Bounds = bounds
		m.redraw()
	case StepMsg:
		m.step, m.t = msg.Step, msg.T
		if !m.frozen {
			m.setPositions(msg.Pos)
		}
	case DoneMsg:
		m.done, m.err = true, msg.Err
		m.step = m.steps
		if msg.Pos != nil {
			m.setPositions(msg.Pos)
		}
	}
	return m, nil
}

func (m *LiveModel) setPositions(pos walk.Positions) {
	m.pos = pos
	m.mean = make([]float64, pos.Dim())
	for d := range m.mean {
		if pos.N() > 0 {
			m.mean[d] = stat.Mean(pos[d], nil)
		}
	}
	m.redraw()
}

// redraw plots the current ensemble, refitting the view when walkers leave
// it.
func (m *LiveModel) redraw() {
	if m.pos.Dim() < 1 {
		return
	}
	xIdx, yIdx := 0, 1
	if m.pos.Dim() == 1 {
		yIdx = 0
	}

	if !m.fitted || !m.inside(xIdx, yIdx) {
		m.canvas.Bounds = Fit(m.pos, xIdx, yIdx)
		m.fitted = true
	}
	m.canvas.Clear()
	m.canvas.PlotEnsemble(m.pos, xIdx, yIdx)
}

func (m *LiveModel) inside(xIdx, yIdx int) bool {
	for i := 0; i < m.pos.N(); i++ {
		if !m.canvas.Bounds.Contains(m.pos[xIdx][i], m.pos[yIdx][i]) {
			return false
		}
	}
	return true
}

func (m LiveModel) View() string {
	var b strings.Builder

	status := StatusRunning.Render("running")
	switch {
	case m.err != nil:
		status = StatusFailed.Render("failed: " + m.err.Error())
	case m.done:
		status = StatusRunning.Render("done")
	case m.frozen:
		status = StatusFrozen.Render("frozen")
	}
	b.WriteString(Title.Render(m.title) + "  " + status + "\n")

	for _, row := range m.canvas.Grid {
		b.WriteString("  ")
		for _, r := range row {
			dots := bits.OnesCount32(uint32(r - brailleBlank))
			if dots == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(m.theme.walkerStyle(float64(dots) / 8).Render(string(r)))
		}
		b.WriteString("\n")
	}

	fraction := 0.0
	if m.steps > 0 {
		fraction = float64(m.step) / float64(m.steps)
	}
	b.WriteString("  " + ProgressBar(fraction, 30) + " ")
	b.WriteString(Metric("t", fmt.Sprintf("%.2f", m.t)) + "  ")
	b.WriteString(Metric("walkers", m.pos.N()) + "  ")
	if m.mean != nil {
		b.WriteString(Metric("mean", FormatVector(m.mean)))
	}
	b.WriteString("\n")
	b.WriteString(KeyHint.Render("  space freeze · t theme · f refit · q quit"))
	return b.String()
}

// RunLive runs s in the background while the live view renders it. It
// returns when the view is closed. finished is false when the view was
// closed before the run ended; the run then keeps going until the process
// exits.
func RunLive(s *sim.Simulation, seed *int64, title string, opts ...tea.ProgramOption) (finished bool, err error) {
	model := NewLiveModel(title, sim.StepCount(s.Config().T, s.Config().Dt))
	p := tea.NewProgram(model, opts...)
	s.AddObserver(NewLiveObserver(p, 30))

	var (
		mu     sync.Mutex
		runErr error
		ended  bool
	)
	go func() {
		err := s.Run(seed)
		mu.Lock()
		runErr, ended = err, true
		mu.Unlock()
		p.Send(DoneMsg{Err: err, Pos: s.Positions()})
	}()

	if _, err := p.Run(); err != nil {
		return false, err
	}

	mu.Lock()
	defer mu.Unlock()
	return ended, runErr
}
