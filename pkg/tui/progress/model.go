package progress

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fixpoint-sh/fixpoint/pkg/report"
)

const tickInterval = 80 * time.Millisecond

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Background(lipgloss.Color("63")).
			Padding(0, 1)

	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	violateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	faultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = dimStyle
)

// RunFunc executes the check and returns its aggregate report. The model
// invokes it once from Init and quits when it returns.
type RunFunc func() (*report.CampaignReport, error)

type checkDoneMsg struct {
	camp *report.CampaignReport
	err  error
}

type tickMsg time.Time

// Model is the live view of one running check.
type Model struct {
	transformation string
	domain         string
	total          int

	run     RunFunc
	cancel  context.CancelFunc
	tracker *Tracker

	bar  progress.Model
	spin spinner.Model

	current   snapshot
	done      bool
	cancelled bool

	camp *report.CampaignReport
	err  error
}

// NewModel builds a view for a check over total planned trials. cancel
// stops the check when the user quits early; run performs it.
func NewModel(transformation, domain string, total int, tracker *Tracker, run RunFunc, cancel context.CancelFunc) Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		transformation: transformation,
		domain:         domain,
		total:          total,
		run:            run,
		cancel:         cancel,
		tracker:        tracker,
		bar:            bar,
		spin:           s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.runCmd(), tick())
}

func (m Model) runCmd() tea.Cmd {
	return func() tea.Msg {
		camp, err := m.run()
		return checkDoneMsg{camp: camp, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.cancelled {
				m.cancelled = true
				m.cancel()
			}
			// The check notices the cancellation and checkDoneMsg
			// arrives with whatever was observed so far.
			return m, nil
		}

	case tickMsg:
		m.current = m.tracker.snap()
		if m.done {
			return m, nil
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case checkDoneMsg:
		m.done = true
		m.camp = msg.camp
		m.err = msg.err
		m.current = m.tracker.snap()
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	snap := m.current
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" Checking %s ", m.transformation)))
	s.WriteString("\n")
	s.WriteString(dimStyle.Render(m.domain))
	s.WriteString("\n\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(snap.trials) / float64(m.total)
		if pct > 1 {
			pct = 1
		}
	}
	s.WriteString(m.bar.ViewAs(pct))
	fmt.Fprintf(&s, "  %d/%d trials\n\n", snap.trials, m.total)

	fmt.Fprintf(&s, "%s  %s  %s  %s\n",
		passStyle.Render(fmt.Sprintf("✔ %d passed", snap.passed)),
		skipStyle.Render(fmt.Sprintf("↷ %d skipped", snap.skipped)),
		violateStyle.Render(fmt.Sprintf("✘ %d violated", snap.violated)),
		faultStyle.Render(fmt.Sprintf("⚡ %d faulted", snap.faulted)),
	)

	switch {
	case m.cancelled:
		fmt.Fprintf(&s, "\n%s stopping...\n", m.spin.View())
	case snap.shrinkInput != "":
		fmt.Fprintf(&s, "\n%s shrinking %s\n", m.spin.View(), truncateQuoted(snap.shrinkInput, 32))
	case snap.latest != "":
		fmt.Fprintf(&s, "\nlast input %s\n", dimStyle.Render(truncateQuoted(snap.latest, 32)))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("(q to stop)"))
	s.WriteString("\n")
	return s.String()
}

// Report returns the check's result once the program has finished.
func (m Model) Report() (*report.CampaignReport, error) {
	return m.camp, m.err
}

// truncateQuoted quotes s and caps it at width runes, counting the
// quotes, so one pathological input cannot wrap the whole view.
func truncateQuoted(s string, width int) string {
	quoted := strconv.Quote(s)
	runes := []rune(quoted)
	if len(runes) <= width {
		return quoted
	}
	return string(runes[:width-2]) + `…"`
}
