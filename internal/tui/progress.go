// Package tui renders a live ensemble-progress monitor with bubbletea and
// lipgloss, in the teacher's styling idiom: a small palette of named
// lipgloss styles, an update loop fed from a progress channel (each
// received observation re-arms a command waiting for the next one), and a
// string-builder View.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kmclab/latticekmc/internal/ensemble"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

const barWidth = 40

// Monitor is an ensemble.ProgressSink that feeds print-step observations
// into a running bubbletea program.
type Monitor struct {
	program *tea.Program
	updates chan ensemble.Progress
}

// NewMonitor builds the bubbletea program (started by Run) and returns a
// Monitor ready to receive Report calls from the ensemble's step loop.
func NewMonitor(title string) *Monitor {
	updates := make(chan ensemble.Progress, 64)
	m := monitorModel{title: title, updates: updates}
	p := tea.NewProgram(m)
	return &Monitor{program: p, updates: updates}
}

// Report forwards one progress observation to the running program. It
// never blocks the caller for long: a full channel drops the oldest
// pending update rather than stalling the simulation loop.
func (m *Monitor) Report(p ensemble.Progress) {
	select {
	case m.updates <- p:
	default:
		select {
		case <-m.updates:
		default:
		}
		m.updates <- p
	}
}

// Run blocks until the program exits (normally when the ensemble signals
// completion via Close).
func (m *Monitor) Run() error {
	_, err := m.program.Run()
	return err
}

// Close signals the program to exit once its current render is done.
func (m *Monitor) Close() {
	m.program.Quit()
}

type progressMsg ensemble.Progress

type monitorModel struct {
	title   string
	updates chan ensemble.Progress
	last    ensemble.Progress
	started time.Time
}

func (m monitorModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(updates chan ensemble.Progress) tea.Cmd {
	return func() tea.Msg {
		return progressMsg(<-updates)
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progressMsg:
		m.last = ensemble.Progress(msg)
		if m.started.IsZero() {
			m.started = time.Now()
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	b.WriteString("\n  " + cyan.Render(m.title) + "\n")
	b.WriteString(dimmer.Render("  ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	if m.last.StepLim == 0 {
		b.WriteString(dim.Render("  waiting for the first print step...") + "\n")
		return b.String()
	}

	frac := float64(m.last.Step) / float64(m.last.StepLim)
	filled := int(frac * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := green.Render(strings.Repeat("█", filled)) + dimmer.Render(strings.Repeat("░", barWidth-filled))

	b.WriteString("  " + bar + fmt.Sprintf(" %6.2f%%\n", frac*100))
	b.WriteString("\n")
	b.WriteString("  " + white.Render(fmt.Sprintf("step %d / %d", m.last.Step, m.last.StepLim)) + "\n")
	b.WriteString("  " + yellow.Render(fmt.Sprintf("%d replicas alive", m.last.AliveReplicas)) + "\n")

	if !m.started.IsZero() {
		elapsed := time.Since(m.started)
		b.WriteString("  " + dim.Render(fmt.Sprintf("elapsed %s", elapsed.Round(time.Second))) + "\n")
	}

	b.WriteString("\n" + dim.Render("  q to quit") + "\n")

	return b.String()
}
