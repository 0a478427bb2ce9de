package report

import (
	"time"
)

// CampaignReport aggregates the reports of parallel runs launched from one
// base seed.
type CampaignReport struct {
	BaseSeed    uint64        `json:"baseSeed" yaml:"baseSeed"`
	RunCount    int           `json:"runCount" yaml:"runCount"`
	TotalTrials int           `json:"totalTrials" yaml:"totalTrials"`
	Passed      int           `json:"passed" yaml:"passed"`
	Skipped     int           `json:"skipped" yaml:"skipped"`
	Violated    int           `json:"violated" yaml:"violated"`
	Faulted     int           `json:"faulted" yaml:"faulted"`
	FailedRuns  int           `json:"failedRuns" yaml:"failedRuns"`
	Duration    time.Duration `json:"durationNanos" yaml:"durationNanos"`

	// Best is the preferred counterexample across every run, and BestRunID
	// names the run that produced it.
	Best      *CounterExample `json:"best,omitempty" yaml:"best,omitempty"`
	BestRunID string          `json:"bestRunId,omitempty" yaml:"bestRunId,omitempty"`

	Runs []*RunReport `json:"runs" yaml:"runs"`
}

// Aggregate combines per-run reports into a campaign report. Duration is
// the campaign's wall time, not the sum of run durations.
func Aggregate(baseSeed uint64, runs []*RunReport, wall time.Duration) *CampaignReport {
	c := &CampaignReport{
		BaseSeed: baseSeed,
		RunCount: len(runs),
		Duration: wall,
		Runs:     runs,
	}

	for _, r := range runs {
		c.TotalTrials += r.Trials
		c.Passed += r.Passed
		c.Skipped += r.Skipped
		c.Violated += r.Violated
		c.Faulted += r.Faulted
		if r.Failed() {
			c.FailedRuns++
		}
		if best := r.Best(); best != nil {
			if c.Best == nil || lessCounterExample(best, c.Best) {
				c.Best = best
				c.BestRunID = r.RunID
			}
		}
	}
	return c
}

// Failed reports whether any run in the campaign failed.
func (c *CampaignReport) Failed() bool {
	return c.FailedRuns > 0
}
