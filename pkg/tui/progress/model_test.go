package progress

import (
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/report"
	"github.com/fixpoint-sh/fixpoint/pkg/runner"
)

func stubRun() (*report.CampaignReport, error) {
	return &report.CampaignReport{}, nil
}

func TestTrackerTalliesOutcomes(t *testing.T) {
	tr := NewTracker()
	hook := tr.Hook()

	hook(runner.Progress{Kind: property.Passed, Input: "12"})
	hook(runner.Progress{Kind: property.Skipped, Input: "3"})
	hook(runner.Progress{Kind: property.Passed, Input: "456"})
	hook(runner.Progress{Kind: property.Violated, Input: "77"})
	hook(runner.Progress{Kind: property.Faulted, Input: "9"})

	snap := tr.snap()
	assert.Equal(t, 5, snap.trials)
	assert.Equal(t, 2, snap.passed)
	assert.Equal(t, 1, snap.skipped)
	assert.Equal(t, 1, snap.violated)
	assert.Equal(t, 1, snap.faulted)
	assert.Equal(t, "9", snap.latest)
}

func TestTrackerShrinkClearsOnNextTrial(t *testing.T) {
	tr := NewTracker()
	hook := tr.Hook()

	hook(runner.Progress{Kind: property.Violated, Input: "707"})
	hook(runner.Progress{Input: "707", Shrinking: true})
	assert.Equal(t, "707", tr.snap().shrinkInput)

	hook(runner.Progress{Kind: property.Passed, Input: "1"})
	snap := tr.snap()
	assert.Empty(t, snap.shrinkInput)
	assert.Equal(t, 2, snap.trials)
}

func TestModelRendersTrackedProgress(t *testing.T) {
	tr := NewTracker()
	hook := tr.Hook()
	hook(runner.Progress{Kind: property.Passed, Input: "12"})
	hook(runner.Progress{Kind: property.Violated, Input: "77"})
	hook(runner.Progress{Input: "77", Shrinking: true})

	m := NewModel("dash-digits", "digits[1,8]", 10, tr, stubRun, func() {})
	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	require.NotNil(t, cmd, "tick should re-arm while the check runs")

	view := m.View()
	assert.Contains(t, view, "Checking dash-digits")
	assert.Contains(t, view, "2/10 trials")
	assert.Contains(t, view, "1 passed")
	assert.Contains(t, view, "1 violated")
	assert.Contains(t, view, "shrinking")
}

func TestModelQuitsWhenCheckFinishes(t *testing.T) {
	camp := &report.CampaignReport{RunCount: 1}
	m := NewModel("identity", "digits[1,8]", 10, NewTracker(), stubRun, func() {})

	next, cmd := m.Update(checkDoneMsg{camp: camp})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	got, err := m.Report()
	require.NoError(t, err)
	assert.Same(t, camp, got)
	assert.Empty(t, m.View(), "finished view should leave the screen to the report")
}

func TestModelCancelsOnQuitKey(t *testing.T) {
	var cancelled int
	m := NewModel("identity", "digits[1,8]", 10, NewTracker(), stubRun, func() { cancelled++ })

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = next.(Model)
	assert.Equal(t, 1, cancelled)
	assert.Contains(t, m.View(), "stopping")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	assert.Equal(t, 1, cancelled, "a second quit keypress should not cancel again")
}

func TestTruncateQuotedCapsWidth(t *testing.T) {
	assert.Equal(t, `"777"`, truncateQuoted("777", 32))

	long := truncateQuoted("123456789012345678901234567890123456789", 32)
	assert.Equal(t, 32, utf8.RuneCountInString(long))
	assert.Contains(t, long, `…"`)
}
