package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Event reports stress-worker progress to the UI.
type Event struct {
	Worker    int    // worker index
	Completed uint64 // operations completed so far by this worker
	Done      bool   // worker finished its quota
}

type progressModel struct {
	title     string
	events    <-chan Event
	spinner   spinner.Model
	prog      progress.Model
	workers   []workerItem
	perWorker uint64
	width     int
	done      bool
}

type workerItem struct {
	completed uint64
	done      bool
}

type eventMsg Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders stress
// progress for workers hammering a shared slot.
func NewProgressModel(title string, workers int, perWorker uint64, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:     title,
		events:    events,
		spinner:   sp,
		prog:      prog,
		workers:   make([]workerItem, workers),
		perWorker: perWorker,
		width:     80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.workers) == 0 {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.prog.ViewAs(m.ratio()))
	b.WriteString("\n")

	for i, w := range m.workers {
		line := fmt.Sprintf("worker %02d  %8d/%d ops", i, w.completed, m.perWorker)
		line = runewidth.Truncate(line, m.width-4, "…")
		if w.done {
			b.WriteString(styleStatus("done").Render("  ✓ " + line))
		} else {
			b.WriteString("  " + m.spinner.View() + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *progressModel) applyEvent(ev Event) tea.Cmd {
	if ev.Worker < 0 || ev.Worker >= len(m.workers) {
		return nil
	}
	m.workers[ev.Worker].completed = ev.Completed
	if ev.Done {
		m.workers[ev.Worker].done = true
	}
	return nil
}

func (m *progressModel) ratio() float64 {
	if m.perWorker == 0 || len(m.workers) == 0 {
		return 0
	}
	var total uint64
	for _, w := range m.workers {
		total += w.completed
	}
	return float64(total) / float64(m.perWorker*uint64(len(m.workers)))
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "failed":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}
