package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/docker/go-units"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // Green
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	faultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// HumanEncoder renders reports as styled text for a terminal. lipgloss
// degrades the styling automatically when stdout is not a terminal.
type HumanEncoder struct{}

// NewHumanEncoder creates the human-readable encoder.
func NewHumanEncoder() *HumanEncoder {
	return &HumanEncoder{}
}

// Encode implements Encoder.
func (e *HumanEncoder) Encode(w io.Writer, r *RunReport) error {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s check: %s", r.Property, r.Transformation)))
	e.field(w, "run", r.RunID)
	e.field(w, "domain", r.Domain)
	e.field(w, "state", r.State.String())
	e.field(w, "trials", fmt.Sprintf("%d executed of %d requested", r.Trials, r.TrialCount))
	if !r.StartedAt.IsZero() {
		e.field(w, "started", units.HumanDuration(time.Since(r.StartedAt))+" ago")
	}
	e.field(w, "duration", formatDuration(r.Duration))
	fmt.Fprintln(w)

	fmt.Fprintln(w, countsTable(r.Passed, r.Skipped, r.Violated, r.Faulted))
	fmt.Fprintln(w)

	if r.Stats != nil {
		e.encodeStats(w, r.Stats)
	}

	if r.HarnessFault != "" {
		fmt.Fprintf(w, "%s %s\n", faultStyle.Render("HARNESS FAULT"), r.HarnessFault)
	}

	if !r.Failed() {
		if r.HarnessFault == "" {
			fmt.Fprintln(w, passStyle.Render("PASS")+" no violations found")
		}
		return nil
	}

	fmt.Fprintln(w, failStyle.Render("FAIL")+" the transformation is not idempotent")
	for i := range r.CounterExamples {
		e.encodeCounterExample(w, r, &r.CounterExamples[i])
	}
	return nil
}

// EncodeCampaign implements Encoder.
func (e *HumanEncoder) EncodeCampaign(w io.Writer, c *CampaignReport) error {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("campaign: %d runs from base seed %d", c.RunCount, c.BaseSeed)))
	e.field(w, "trials", strconv.Itoa(c.TotalTrials))
	e.field(w, "duration", formatDuration(c.Duration))
	e.field(w, "failed runs", fmt.Sprintf("%d of %d", c.FailedRuns, c.RunCount))
	fmt.Fprintln(w)

	fmt.Fprintln(w, countsTable(c.Passed, c.Skipped, c.Violated, c.Faulted))
	fmt.Fprintln(w)

	if !c.Failed() {
		fmt.Fprintln(w, passStyle.Render("PASS")+" no violations found in any run")
		return nil
	}

	fmt.Fprintln(w, failStyle.Render("FAIL")+" the transformation is not idempotent")
	if c.Best != nil {
		e.field(w, "found by run", c.BestRunID)
		for _, r := range c.Runs {
			if r.RunID == c.BestRunID {
				e.encodeCounterExample(w, r, c.Best)
				break
			}
		}
	}
	return nil
}

func countsTable(passed, skipped, violated, faulted int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		}).
		Headers("OUTCOME", "COUNT").
		Row("passed", strconv.Itoa(passed)).
		Row("skipped", strconv.Itoa(skipped)).
		Row("violated", strconv.Itoa(violated)).
		Row("faulted", strconv.Itoa(faulted))
}

func (e *HumanEncoder) encodeCounterExample(w io.Writer, r *RunReport, ce *CounterExample) {
	fmt.Fprintln(w)
	e.field(w, "trial", fmt.Sprintf("%d (state %s)", ce.TrialIndex, ce.State))
	e.field(w, "original", strconv.Quote(ce.Original))
	e.field(w, "minimal", strconv.Quote(ce.Minimal))
	e.field(w, "chain", chainLine(ce))
	if len(ce.ShrinkPath) > 0 {
		e.field(w, "shrink", fmt.Sprintf("%d steps, %d candidates tried, stopped: %s",
			len(ce.ShrinkPath), ce.ShrinkIterations, ce.ShrinkStop))
	}
	e.field(w, "replay", fmt.Sprintf("fixpoint replay --transform %s --alphabet %q --min-length %d --max-length %d --state %s",
		r.Transformation, r.Alphabet, r.MinLength, r.MaxLength, ce.State))
}

func (e *HumanEncoder) encodeStats(w io.Writer, s *Stats) {
	e.field(w, "input length", fmt.Sprintf("mean %.1f, median %.1f, max %d",
		s.InputLengthMean, s.InputLengthMedian, s.InputLengthMax))
	e.field(w, "trial latency", fmt.Sprintf("mean %s, p95 %s",
		formatDuration(s.TrialMean), formatDuration(s.TrialP95)))
	fmt.Fprintln(w)
}

func (e *HumanEncoder) field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), value)
}

// chainLine renders the observed application chain of the minimal input.
func chainLine(ce *CounterExample) string {
	switch {
	case ce.Fault != "":
		return fmt.Sprintf("%s -> fault: %s", strconv.Quote(ce.Minimal), ce.Fault)
	case ce.Rejection != "":
		return fmt.Sprintf("%s -> %s -> rejected: %s",
			strconv.Quote(ce.Minimal), strconv.Quote(ce.Output1), ce.Rejection)
	default:
		return fmt.Sprintf("%s -> %s -> %s",
			strconv.Quote(ce.Minimal), strconv.Quote(ce.Output1), strconv.Quote(ce.Output2))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
