package runner

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/report"
)

// RunnerFactory builds the Runner for one campaign run. Each run gets its
// own start state with a seed derived from the campaign's base seed.
type RunnerFactory func(start generator.State) (*Runner, error)

// RunCampaign executes runs independent runs in parallel, at most workers
// at a time, and aggregates their reports. Run i draws from the seed
// DeriveSeed(baseSeed, i), so a campaign is as reproducible as a single
// run. Violations do not cut a campaign short; the first harness fault
// cancels the remaining runs and is returned alongside the partial
// aggregate.
func RunCampaign(ctx context.Context, baseSeed uint64, runs, workers int, build RunnerFactory) (*report.CampaignReport, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("run count must be positive, got %d", runs)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	logrus.WithFields(logrus.Fields{
		"baseSeed": baseSeed,
		"runs":     runs,
		"workers":  workers,
	}).Debug("starting campaign")

	started := time.Now()
	reports := make([]*report.RunReport, runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < runs; i++ {
		g.Go(func() error {
			r, err := build(generator.NewState(generator.DeriveSeed(baseSeed, uint64(i))))
			if err != nil {
				return fmt.Errorf("building runner for run %d: %w", i, err)
			}
			rep, err := r.Run(gctx)
			reports[i] = rep
			return err
		})
	}
	err := g.Wait()

	collected := make([]*report.RunReport, 0, runs)
	for _, rep := range reports {
		if rep != nil {
			collected = append(collected, rep)
		}
	}
	return report.Aggregate(baseSeed, collected, time.Since(started)), err
}
