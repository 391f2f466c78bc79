package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/epicycle/internal/experiment"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/models"
	"github.com/san-kum/epicycle/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const historyLength = 60

type sampleMsg struct {
	sample  sim.Sample
	metrics map[string]float64
}

type doneMsg struct{ err error }

// Model is a live view of one propagation. The run happens on its own
// goroutine and hands samples over an unbuffered channel, so pausing the view
// also holds the propagator.
type Model struct {
	exp      *experiment.Experiment
	name     string
	epoch    float64
	duration float64

	ctx     context.Context
	cancel  context.CancelFunc
	samples chan sampleMsg
	done    chan error

	last     sim.Sample
	values   map[string]float64
	count    int
	paused   bool
	waiting  bool
	finished bool
	err      error
	history  []float64
	canvas   *canvas

	width  int
	height int
}

func NewModel(ctx context.Context, exp *experiment.Experiment) Model {
	cfg := exp.Config()
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		exp:      exp,
		name:     cfg.Name,
		epoch:    cfg.Epoch,
		duration: cfg.Duration,
		ctx:      ctx,
		cancel:   cancel,
		samples:  make(chan sampleMsg),
		done:     make(chan error, 1),
		history:  make([]float64, 0, historyLength),
		canvas:   newCanvas(60, 20, sceneScale(linalg.Vec(cfg.Initial.R).Norm())),
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	go m.run()
	return m.wait()
}

func (m Model) run() {
	err := m.exp.Stream(m.ctx, func(s sim.Sample) bool {
		msg := sampleMsg{sample: s, metrics: snapshot(m.exp.Metrics())}
		select {
		case m.samples <- msg:
			return true
		case <-m.ctx.Done():
			return false
		}
	})
	m.done <- err
}

func snapshot(ms []sim.Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, mt := range ms {
		out[mt.Name()] = mt.Value()
	}
	return out
}

func (m Model) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.samples:
			return s
		case err := <-m.done:
			return doneMsg{err}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case sampleMsg:
		m.waiting = false
		m.record(msg)
		if m.paused {
			return m, nil
		}
		m.waiting = true
		return m, m.wait()
	case doneMsg:
		m.waiting = false
		m.finished = true
		if msg.err != nil && !sim.IsCanceled(msg.err) {
			m.err = msg.err
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) record(msg sampleMsg) {
	m.last = msg.sample
	m.values = msg.metrics
	m.count++
	m.canvas.track(msg.sample.System.R)

	if _, _, alt, err := models.Geodetic(msg.sample.System.R); err == nil {
		m.history = append(m.history, alt/1e3)
		if len(m.history) > historyLength {
			m.history = m.history[1:]
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case " ", "p":
		if m.finished {
			return m, nil
		}
		m.paused = !m.paused
		if !m.paused && !m.waiting {
			m.waiting = true
			return m, m.wait()
		}
	case "c":
		m.canvas.reset()
	}
	return m, nil
}

func (m Model) progress() float64 {
	if m.duration <= 0 || m.count == 0 {
		return 0
	}
	p := (m.last.T - m.epoch) / m.duration
	if p > 1 {
		p = 1
	}
	return p
}

func (m Model) View() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.err != nil:
		statusIcon = red.Render("●")
		statusText = red.Render("failed")
	case m.finished:
		statusIcon = cyan.Render("●")
		statusText = cyan.Render("done")
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	fmt.Fprintf(&b, "\n   %s %s  %s\n", statusIcon, cyan.Render(m.name), statusText)

	barWidth := 36
	filled := int(m.progress() * float64(barWidth))
	timeStr := fmt.Sprintf("%.0fs/%.0fs", m.last.T-m.epoch, m.duration)
	if m.count == 0 {
		timeStr = fmt.Sprintf("0s/%.0fs", m.duration)
	}
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	fmt.Fprintf(&b, "   %s %s  %s\n\n", bar, dim.Render(timeStr), dim.Render(fmt.Sprintf("n=%d", m.last.N)))

	for _, row := range m.canvas.cells {
		b.WriteString("   " + string(row) + "\n")
	}

	sys := m.last.System
	alt := "?"
	if _, _, h, err := models.Geodetic(sys.R); err == nil {
		alt = fmt.Sprintf("%.1fkm", h/1e3)
	}
	b.WriteString("\n   ")
	b.WriteString(dim.Render("alt=") + white.Render(alt) + "  ")
	b.WriteString(dim.Render("|v|=") + white.Render(fmt.Sprintf("%.1fm/s", sys.V.Norm())) + "  ")
	b.WriteString(dim.Render("|w|=") + white.Render(fmt.Sprintf("%.4frad/s", sys.W.Norm())) + "  ")
	b.WriteString(dim.Render("m=") + white.Render(fmt.Sprintf("%.1fkg", m.last.Mass)) + "\n")

	if len(m.values) > 0 {
		names := make([]string, 0, len(m.values))
		for name := range m.values {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("   ")
		for _, name := range names {
			b.WriteString(dim.Render(name+"=") + magenta.Render(fmt.Sprintf("%.3g", m.values[name])) + "  ")
		}
		b.WriteString("\n")
	}

	if len(m.history) > 1 {
		fmt.Fprintf(&b, "   %s %s\n", dim.Render("alt"), cyan.Render(sparkline(m.history, 24)))
	}

	if m.err != nil {
		b.WriteString("\n   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  c clear trail  q quit") + "\n")

	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// RunLive shows the experiment in the alternate screen until it finishes
// and the user quits.
func RunLive(ctx context.Context, exp *experiment.Experiment) error {
	m := NewModel(ctx, exp)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
