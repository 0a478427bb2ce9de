// Package main is the entry point for the fixpoint CLI.
// fixpoint is a property-based testing engine that checks text
// transformations for idempotence: applying a transformation twice must
// produce the same output as applying it once.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/term"

	"github.com/fixpoint-sh/fixpoint/pkg/check"
	"github.com/fixpoint-sh/fixpoint/pkg/cli"
	"github.com/fixpoint-sh/fixpoint/pkg/codegen"
	"github.com/fixpoint-sh/fixpoint/pkg/completion"
	"github.com/fixpoint-sh/fixpoint/pkg/config"
	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/mcp"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/report"
	"github.com/fixpoint-sh/fixpoint/pkg/runner"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
	"github.com/fixpoint-sh/fixpoint/pkg/tui/progress"
)

// Build information, set via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errViolations signals that a check completed and found violations. It
// maps to exit code 1, where every other error maps to 2.
var errViolations = errors.New("violations found")

var completer = completion.NewProvider()

func main() {
	// A .env file can hold the FIXPOINT_* variables read by ApplyEnv.
	_ = godotenv.Load()
	os.Exit(Execute())
}

// Execute runs the root command and maps the result to the process exit
// code: 0 when the check passed, 1 when it found violations, 2 when it
// could not run.
func Execute() int {
	err := newRootCmd().Execute()
	failed := errors.Is(err, errViolations)
	if failed {
		err = nil
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.NewErrorFormatter().FormatError(err))
	}
	return cli.ExitCode(err, failed)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "fixpoint",
		Short: "Property-based idempotence checker for text transformations",
		Long: `fixpoint checks that a transformation is idempotent: applying it twice
must produce the same output as applying it once.

It generates seeded random inputs from a configurable domain, applies
the transformation to every input and to each resulting output, and
shrinks any violation to a minimal counterexample, reported with the
observed chain input -> output1 -> output2.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q", logLevel)
			}
			logrus.SetLevel(level)
			// Logs go to stderr; stdout carries reports and, for the MCP
			// stdio transport, the JSON-RPC stream.
			logrus.SetOutput(os.Stderr)
			return nil
		},
	}

	// Disable the default completion command (we'll use our custom one)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "Log level: debug, info, warning, error")
	_ = cmd.RegisterFlagCompletionFunc("log-level", completeWith(completer.LogLevels))

	cmd.AddCommand(
		newCheckCmd(),
		newReplayCmd(),
		newTransformsCmd(),
		newServeCmd(),
		newCompletionCmd(),
	)

	return cmd
}

// completeWith adapts a completion provider lookup to cobra's flag
// completion signature.
func completeWith(lookup func(prefix string) []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lookup(toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// checkFlags holds the check command's configuration flags. apply
// overlays only the flags the user actually set, so values from the
// environment and the config file survive underneath.
type checkFlags struct {
	transformation  string
	seed            uint64
	trials          int
	alphabet        string
	minLength       int
	maxLength       int
	precondition    string
	collectAll      bool
	noShrink        bool
	shrinkBudget    int
	perTrialTimeout time.Duration
	runs            int
	workers         int
	stats           bool
	invalidExitCode int
	execRateLimit   float64
}

func (f *checkFlags) register(flags *pflag.FlagSet) {
	defaults := config.Default()
	flags.StringVarP(&f.transformation, "transform", "t", "", "Built-in transformation to check")
	flags.Uint64Var(&f.seed, "seed", 0, "Base seed for input generation, 0 picks a time-based seed")
	flags.IntVarP(&f.trials, "trials", "n", defaults.Trials, "Number of inputs to generate and check")
	flags.StringVarP(&f.alphabet, "alphabet", "a", defaults.Alphabet, "Character class or literal charset inputs draw from")
	flags.IntVar(&f.minLength, "min-length", defaults.MinLength, "Minimum generated input length, in characters")
	flags.IntVar(&f.maxLength, "max-length", defaults.MaxLength, "Maximum generated input length, in characters")
	flags.StringVar(&f.precondition, "precondition", "", "Predicate expression; inputs it rejects are skipped")
	flags.BoolVar(&f.collectAll, "collect-all", false, "Keep checking after the first violation")
	flags.BoolVar(&f.noShrink, "no-shrink", false, "Report violations as found, without minimizing")
	flags.IntVar(&f.shrinkBudget, "shrink-budget", 0, "Cap on candidate evaluations per shrink, 0 keeps the default")
	flags.DurationVar(&f.perTrialTimeout, "per-trial-timeout", 0, "Timeout per transformation application, 0 disables")
	flags.IntVar(&f.runs, "runs", defaults.Runs, "Number of independent runs with seeds derived from the base seed")
	flags.IntVar(&f.workers, "workers", 0, "Concurrent runs, 0 uses GOMAXPROCS")
	flags.BoolVar(&f.stats, "stats", false, "Collect input-length and latency statistics")
	flags.IntVar(&f.invalidExitCode, "invalid-exit-code", 0, "Exit code a command uses to reject an input, 0 keeps 2")
	flags.Float64Var(&f.execRateLimit, "exec-rate-limit", 0, "Command invocations per second, 0 means unlimited")
}

func (f *checkFlags) apply(flags *pflag.FlagSet, cfg *config.CheckConfig) {
	if flags.Changed("transform") {
		cfg.Transformation = f.transformation
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	if flags.Changed("trials") {
		cfg.Trials = f.trials
	}
	if flags.Changed("alphabet") {
		cfg.Alphabet = f.alphabet
	}
	if flags.Changed("min-length") {
		cfg.MinLength = f.minLength
	}
	if flags.Changed("max-length") {
		cfg.MaxLength = f.maxLength
	}
	if flags.Changed("precondition") {
		cfg.Precondition = f.precondition
	}
	if flags.Changed("collect-all") {
		cfg.CollectAll = f.collectAll
	}
	if flags.Changed("no-shrink") {
		cfg.NoShrink = f.noShrink
	}
	if flags.Changed("shrink-budget") {
		cfg.ShrinkBudget = f.shrinkBudget
	}
	if flags.Changed("per-trial-timeout") {
		cfg.PerTrialTimeout = config.Duration{Duration: f.perTrialTimeout}
	}
	if flags.Changed("runs") {
		cfg.Runs = f.runs
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("stats") {
		cfg.Stats = f.stats
	}
	if flags.Changed("invalid-exit-code") {
		cfg.InvalidExitCode = f.invalidExitCode
	}
	if flags.Changed("exec-rate-limit") {
		cfg.ExecRateLimit = f.execRateLimit
	}
}

// newCheckCmd creates the check subcommand
func newCheckCmd() *cobra.Command {
	var (
		flags      checkFlags
		output     string
		configPath string
		saveConfig string
		emitRepro  string
		noTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "check [flags] [-- command [args...]]",
		Short: "Check a transformation for idempotence",
		Long: `Check that a transformation is idempotent over randomly generated
inputs. The transformation is a built-in named with --transform, or an
external command given after -- that reads an input on stdin and
writes the transformed output to stdout.

Every violation is shrunk to a minimal counterexample and reported
with the observed chain input -> output1 -> output2. Settings resolve
in order: flags override FIXPOINT_* environment variables, which
override the config file, which overrides the built-in defaults.

Exit codes:
  0  every trial passed
  1  a violation was found
  2  the check could not run

Example:
  fixpoint check --transform dash-digits --alphabet "0-9\-" --max-length 14
  fixpoint check --trials 1000 --seed 42 -- ./format.sh
  fixpoint check --transform trim --runs 8 --workers 4 --collect-all`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCheckConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			flags.apply(cmd.Flags(), cfg)
			if len(args) > 0 {
				cfg.Command = args
			}

			if saveConfig != "" {
				if err := config.Save(saveConfig, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", saveConfig)
				return nil
			}

			if !report.ValidateFormat(output) {
				return fmt.Errorf("unsupported output format: %s (supported: %v)", output, report.ListFormats())
			}
			if emitRepro != "" && !codegen.ValidateFormat(emitRepro) {
				return fmt.Errorf("unsupported repro format: %s (supported: %v)", emitRepro, codegen.ListFormats())
			}

			plan, err := check.Build(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interactive := output == string(report.FormatTable) && !noTUI && term.IsTerminal(int(os.Stdout.Fd()))
			camp, runErr := executeCheck(ctx, plan, interactive)
			if camp == nil {
				return runErr
			}

			if err := printCampaign(cmd.OutOrStdout(), camp, report.Format(output)); err != nil {
				return err
			}
			if emitRepro != "" {
				if err := printRepro(cmd.OutOrStdout(), cfg, camp, codegen.OutputFormat(emitRepro)); err != nil {
					return err
				}
			}

			if runErr != nil {
				var fault *runner.HarnessFault
				if errors.As(runErr, &fault) && errors.Is(fault.Cause, context.Canceled) {
					return fmt.Errorf("check cancelled before completing; the report above is partial")
				}
				return runErr
			}
			if camp.Failed() {
				return errViolations
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", string(report.FormatTable), "Output format: table, json, yaml")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file to load")
	cmd.Flags().StringVar(&saveConfig, "save-config", "", "Write the resolved configuration to this path and exit")
	cmd.Flags().StringVar(&emitRepro, "emit-repro", "", "Emit a reproduction snippet for the best counterexample: go, shell, python")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable the live progress view")

	_ = cmd.RegisterFlagCompletionFunc("transform", completeWith(completer.Transforms))
	_ = cmd.RegisterFlagCompletionFunc("alphabet", completeWith(completer.AlphabetClasses))
	_ = cmd.RegisterFlagCompletionFunc("output", completeWith(completer.OutputFormats))
	_ = cmd.RegisterFlagCompletionFunc("emit-repro", completeWith(completer.ReproFormats))

	return cmd
}

// loadCheckConfig loads the named config file, falling back to the
// default location when it exists and to built-in defaults otherwise.
func loadCheckConfig(path string) (*config.CheckConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	defaultPath, err := config.DefaultPath()
	if err != nil {
		return config.Default(), nil
	}
	if _, err := os.Stat(defaultPath); err != nil {
		return config.Default(), nil
	}
	return config.Load(defaultPath)
}

// executeCheck runs the campaign, under the live progress view when the
// caller asked for one. Both paths return whatever partial report was
// collected alongside any error.
func executeCheck(ctx context.Context, plan *check.Plan, interactive bool) (*report.CampaignReport, error) {
	if !interactive {
		return plan.RunCampaign(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := progress.NewTracker()
	model := progress.NewModel(
		plan.Transformation.Name(),
		plan.Domain.String(),
		plan.Config.Trials*plan.Config.Runs,
		tracker,
		func() (*report.CampaignReport, error) {
			return plan.RunCampaign(ctx, runner.WithProgress(tracker.Hook()))
		},
		cancel,
	)

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, err
	}
	return final.(progress.Model).Report()
}

// printCampaign renders the campaign, collapsing a single-run campaign
// to its one run's report.
func printCampaign(w io.Writer, camp *report.CampaignReport, format report.Format) error {
	enc, err := report.NewEncoder(format)
	if err != nil {
		return err
	}
	if camp.RunCount == 1 && len(camp.Runs) == 1 {
		return enc.Encode(w, camp.Runs[0])
	}
	return enc.EncodeCampaign(w, camp)
}

// printRepro emits a reproduction snippet for the campaign's best
// counterexample, if it found one.
func printRepro(w io.Writer, cfg *config.CheckConfig, camp *report.CampaignReport, format codegen.OutputFormat) error {
	best := camp.Best
	if best == nil {
		return nil
	}

	emitter, err := codegen.NewEmitter(format, codegen.Options{})
	if err != nil {
		return err
	}
	snippet, err := emitter.Emit(codegen.Repro{
		Transformation: cfg.Transformation,
		Command:        cfg.Command,
		Input:          best.Minimal,
		Output1:        best.Output1,
		Output2:        best.Output2,
		State:          best.State.String(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, snippet)
	return nil
}

// newReplayCmd creates the replay subcommand
func newReplayCmd() *cobra.Command {
	var (
		transformation string
		input          string
		stateSpec      string
		alphabet       string
		minLength      int
		maxLength      int
	)

	cmd := &cobra.Command{
		Use:   "replay [flags] [-- command [args...]]",
		Short: "Re-run one input and print the observed chain",
		Long: `Replay a single case: apply the transformation to one input, then to
its own output, and print what happened.

The input comes from --input directly, or from --state, the generator
position a report records for each counterexample. A state regenerates
the exact input when combined with the alphabet and length bounds of
the original check.

Example:
  fixpoint replay --transform dash-digits --input "0000"
  fixpoint replay --transform dash-digits --alphabet "0-9\-" --max-length 14 --state 1234:36
  fixpoint replay --input "a  b " -- ./format.sh`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := resolveReplayTransformation(transformation, args)
			if err != nil {
				return err
			}
			in, err := resolveReplayInput(cmd.Flags(), input, stateSpec, alphabet, minLength, maxLength)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outcome := property.NewIdempotence().Evaluate(ctx, tr, in)
			printOutcome(cmd.OutOrStdout(), in, outcome)

			switch outcome.Kind {
			case property.Violated:
				return errViolations
			case property.Faulted:
				return fmt.Errorf("transformation faulted: %w", outcome.Cause)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&transformation, "transform", "t", "", "Built-in transformation to replay against")
	cmd.Flags().StringVar(&input, "input", "", "Input to replay")
	cmd.Flags().StringVar(&stateSpec, "state", "", "Generator state to regenerate the input from, \"seed:draws\"")
	cmd.Flags().StringVarP(&alphabet, "alphabet", "a", config.Default().Alphabet, "Alphabet of the original check")
	cmd.Flags().IntVar(&minLength, "min-length", config.Default().MinLength, "Minimum length of the original check")
	cmd.Flags().IntVar(&maxLength, "max-length", config.Default().MaxLength, "Maximum length of the original check")

	_ = cmd.RegisterFlagCompletionFunc("transform", completeWith(completer.Transforms))
	_ = cmd.RegisterFlagCompletionFunc("alphabet", completeWith(completer.AlphabetClasses))

	return cmd
}

func resolveReplayTransformation(name string, command []string) (transform.Transformation, error) {
	switch {
	case name != "" && len(command) > 0:
		return nil, fmt.Errorf("--transform and a command are mutually exclusive")
	case name != "":
		return transform.Builtin(name)
	case len(command) > 0:
		return transform.NewExec(command)
	default:
		return nil, fmt.Errorf("a transformation is required: set --transform or give a command after --")
	}
}

// resolveReplayInput picks the input to replay. --input wins even when
// empty, so the empty string is replayable; otherwise the state is
// walked through a generator over the described domain.
func resolveReplayInput(flags *pflag.FlagSet, input, stateSpec, alphabetSpec string, minLength, maxLength int) (string, error) {
	switch {
	case flags.Changed("input") && stateSpec != "":
		return "", fmt.Errorf("--input and --state are mutually exclusive")
	case flags.Changed("input"):
		return input, nil
	case stateSpec == "":
		return "", fmt.Errorf("an input is required: set --input or --state")
	}

	state, err := generator.ParseState(stateSpec)
	if err != nil {
		return "", err
	}
	alphabet, err := domain.ParseAlphabet(alphabetSpec)
	if err != nil {
		return "", err
	}
	dom, err := domain.New(alphabet, minLength, maxLength)
	if err != nil {
		return "", err
	}

	tc, _ := generator.New(dom).Next(state)
	return tc.Input, nil
}

// printOutcome renders the chain the way reports do.
func printOutcome(w io.Writer, input string, outcome property.Outcome) {
	fmt.Fprintf(w, "input    %s\n", strconv.Quote(input))
	switch outcome.Kind {
	case property.Passed:
		fmt.Fprintln(w, "passed   applying twice equals applying once")
	case property.Skipped:
		fmt.Fprintf(w, "skipped  %s\n", outcome.SkipReason)
	case property.Violated:
		if outcome.Rejection != "" {
			fmt.Fprintf(w, "chain    %s -> %s -> rejected: %s\n",
				strconv.Quote(input), strconv.Quote(outcome.Output1), outcome.Rejection)
		} else {
			fmt.Fprintf(w, "chain    %s -> %s -> %s\n",
				strconv.Quote(input), strconv.Quote(outcome.Output1), strconv.Quote(outcome.Output2))
		}
		fmt.Fprintln(w, "violated the second application changed the output")
	case property.Faulted:
		fmt.Fprintf(w, "faulted  %v\n", outcome.Cause)
	}
}

// newTransformsCmd creates the transforms subcommand
func newTransformsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transforms",
		Short: "List the built-in transformations",
		Long: `List the built-in transformations available to check and replay.

Example:
  fixpoint transforms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION")
			_, _ = fmt.Fprintln(w, "----\t-----------")
			for _, name := range transform.BuiltinNames() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", name, transform.BuiltinDescription(name))
			}
			return w.Flush()
		},
	}
	return cmd
}

// newServeCmd creates the serve subcommand
func newServeCmd() *cobra.Command {
	var (
		transport string
		addr      string
		allowExec bool
		maxTrials int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve checks over the Model Context Protocol",
		Long: `Serve fixpoint as an MCP server so connected agents can run checks,
list transformations and replay cases as tools.

The stdio transport speaks JSON-RPC on stdin and stdout for a directly
attached client. The sse transport serves HTTP with server-sent events
on --addr.

Checks of external commands are refused unless --allow-exec is set.

Example:
  fixpoint serve
  fixpoint serve --transport sse --addr :8931
  fixpoint serve --allow-exec --max-trials 1000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []mcp.Option
			if allowExec {
				opts = append(opts, mcp.WithExecAllowed())
			}
			opts = append(opts, mcp.WithMaxTrials(maxTrials))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return mcp.NewServer(version, opts...).Run(ctx, mcp.Transport(transport), addr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", string(mcp.TransportStdio), "Transport: stdio or sse")
	cmd.Flags().StringVar(&addr, "addr", ":8931", "Listen address for the sse transport")
	cmd.Flags().BoolVar(&allowExec, "allow-exec", false, "Allow checks of external command transformations")
	cmd.Flags().IntVar(&maxTrials, "max-trials", mcp.DefaultMaxTrials, "Cap on total trials per tool call, 0 disables the cap")

	_ = cmd.RegisterFlagCompletionFunc("transport", completeWith(completer.Transports))

	return cmd
}

// newCompletionCmd creates the completion subcommand
func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for fixpoint.

The completion script can be sourced to enable auto-completion in your shell.

Bash:
  # Load in current session
  source <(fixpoint completion bash)

  # Install permanently (Linux)
  fixpoint completion bash > /etc/bash_completion.d/fixpoint

  # Install permanently (macOS)
  fixpoint completion bash > /usr/local/etc/bash_completion.d/fixpoint

Zsh:
  # Load in current session
  source <(fixpoint completion zsh)

  # Install permanently
  fixpoint completion zsh > "${fpath[1]}/_fixpoint"

Fish:
  # Load in current session
  fixpoint completion fish | source

  # Install permanently
  fixpoint completion fish > ~/.config/fish/completions/fixpoint.fish`,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]
			switch shell {
			case "bash":
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			}
			return nil
		},
	}

	return cmd
}
