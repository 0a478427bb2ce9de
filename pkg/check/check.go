// Package check assembles a validated configuration into runnable
// idempotence checks. It resolves the transformation, the input domain,
// and the seed, then hands out runners wired with the configured
// options. The cobra commands and the MCP server both build checks
// through this package so a config means the same thing everywhere.
package check

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fixpoint-sh/fixpoint/pkg/config"
	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/precondition"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/report"
	"github.com/fixpoint-sh/fixpoint/pkg/runner"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// Plan is a fully resolved check: every name in the configuration has
// been turned into the thing it names. Seed is the base seed the check
// will actually use; when the configuration left it zero, Build picks a
// time-based one so the report still records a replayable value.
type Plan struct {
	Config         *config.CheckConfig
	Domain         domain.Domain
	Transformation transform.Transformation
	Property       property.Property
	Filter         *precondition.Filter
	Seed           uint64
}

// Build validates cfg and resolves it into a Plan.
func Build(cfg *config.CheckConfig) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dom, err := cfg.Domain()
	if err != nil {
		return nil, err
	}

	tr, err := resolveTransformation(cfg)
	if err != nil {
		return nil, err
	}

	var filter *precondition.Filter
	if cfg.Precondition != "" {
		filter, err = precondition.Compile(cfg.Precondition)
		if err != nil {
			return nil, fmt.Errorf("invalid precondition: %w", err)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		logrus.WithField("seed", seed).Debug("picked time-based seed")
	}

	return &Plan{
		Config:         cfg,
		Domain:         dom,
		Transformation: tr,
		Property:       property.NewIdempotence(),
		Filter:         filter,
		Seed:           seed,
	}, nil
}

func resolveTransformation(cfg *config.CheckConfig) (transform.Transformation, error) {
	if cfg.Transformation != "" {
		return transform.Builtin(cfg.Transformation)
	}

	var opts []transform.ExecOption
	if cfg.InvalidExitCode != 0 {
		opts = append(opts, transform.WithInvalidExitCode(cfg.InvalidExitCode))
	}
	if cfg.ExecRateLimit > 0 {
		opts = append(opts, transform.WithRateLimit(cfg.ExecRateLimit))
	}
	return transform.NewExec(cfg.Command, opts...)
}

// runnerOptions translates the configuration into runner options.
func (p *Plan) runnerOptions() []runner.Option {
	var opts []runner.Option
	if p.Config.CollectAll {
		opts = append(opts, runner.WithCollectAll())
	}
	if p.Config.ShrinkBudget > 0 {
		opts = append(opts, runner.WithShrinkBudget(p.Config.ShrinkBudget))
	}
	if p.Config.NoShrink {
		opts = append(opts, runner.WithoutShrinking())
	}
	if p.Config.PerTrialTimeout.Duration > 0 {
		opts = append(opts, runner.WithPerTrialTimeout(p.Config.PerTrialTimeout.Duration))
	}
	if p.Filter != nil {
		opts = append(opts, runner.WithPrecondition(p.Filter))
	}
	if p.Config.Stats {
		opts = append(opts, runner.WithStats())
	}
	return opts
}

// NewRunner builds a runner for one run starting at the given generator
// state. Extra options are appended after the configured ones, so a
// caller can attach a progress hook without touching the configuration.
func (p *Plan) NewRunner(start generator.State, extra ...runner.Option) (*runner.Runner, error) {
	gen := generator.New(p.Domain)
	opts := append(p.runnerOptions(), extra...)
	return runner.New(gen, p.Property, p.Transformation, start, p.Config.Trials, opts...)
}

// Run executes a single run seeded with the plan's base seed.
func (p *Plan) Run(ctx context.Context, extra ...runner.Option) (*report.RunReport, error) {
	r, err := p.NewRunner(generator.NewState(p.Seed), extra...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// RunCampaign executes the configured number of runs, each seeded by
// deriving from the plan's base seed, with the configured concurrency.
// A single-run campaign still goes through the campaign path so the
// caller always gets the same report shape.
func (p *Plan) RunCampaign(ctx context.Context, extra ...runner.Option) (*report.CampaignReport, error) {
	return runner.RunCampaign(ctx, p.Seed, p.Config.Runs, p.Config.Workers, func(start generator.State) (*runner.Runner, error) {
		return p.NewRunner(start, extra...)
	})
}
