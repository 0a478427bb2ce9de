package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/fixpoint-sh/fixpoint/pkg/check"
	"github.com/fixpoint-sh/fixpoint/pkg/config"
	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/generator"
	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/transform"
)

// Tool names exposed by the server.
const (
	ToolRunCheck       = "run_check"
	ToolListTransforms = "list_transforms"
	ToolReplayCase     = "replay_case"
)

func (s *Server) register(srv *mcp.Server) {
	runCheck := runCheckTool()
	srv.AddTool(&runCheck, s.handleRunCheck)

	listTransforms := listTransformsTool()
	srv.AddTool(&listTransforms, s.handleListTransforms)

	replayCase := replayCaseTool()
	srv.AddTool(&replayCase, s.handleReplayCase)
}

func runCheckTool() mcp.Tool {
	return mcp.Tool{
		Name: ToolRunCheck,
		Description: "Run an idempotence check: generate random inputs, apply the " +
			"transformation twice to each, and report any input whose second " +
			"application changed the output, shrunk to a minimal counterexample. " +
			"Set exactly one of 'transformation' or 'command'.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"transformation": map[string]any{
					"type":        "string",
					"description": "Name of a built-in transformation; see list_transforms",
				},
				"command": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "External command argv checked as the transformation (input on stdin, output on stdout); needs a server started with exec allowed",
				},
				"alphabet": map[string]any{
					"type":        "string",
					"description": "Input alphabet: digits, lower, alnum, printable, phone, or a literal character list (default printable)",
				},
				"min_length": map[string]any{
					"type":        "integer",
					"description": "Minimum generated input length in runes (default 0)",
				},
				"max_length": map[string]any{
					"type":        "integer",
					"description": "Maximum generated input length in runes (default 32)",
				},
				"trials": map[string]any{
					"type":        "integer",
					"description": "Number of inputs to generate and check (default 100)",
				},
				"seed": map[string]any{
					"type":        "integer",
					"description": "Base seed for input generation; omit for a time-based seed",
				},
				"precondition": map[string]any{
					"type":        "string",
					"description": "Predicate expression over inputs, e.g. LengthAtLeast(3) && Matches(`^[0-9]+$`); rejected inputs are skipped",
				},
				"collect_all": map[string]any{
					"type":        "boolean",
					"description": "Keep checking after the first violation instead of stopping",
				},
				"no_shrink": map[string]any{
					"type":        "boolean",
					"description": "Report violations as found, without minimizing them",
				},
				"shrink_budget": map[string]any{
					"type":        "integer",
					"description": "Cap on candidate evaluations per shrink",
				},
				"runs": map[string]any{
					"type":        "integer",
					"description": "Number of independent runs with derived seeds (default 1)",
				},
				"stats": map[string]any{
					"type":        "boolean",
					"description": "Include input-length and latency statistics in the report",
				},
			},
		},
	}
}

func listTransformsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolListTransforms,
		Description: "List the built-in transformations available to run_check and replay_case.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func replayCaseTool() mcp.Tool {
	return mcp.Tool{
		Name: ToolReplayCase,
		Description: "Replay one recorded case: apply the transformation twice to a " +
			"single input and report the outcome chain. Give the input directly, " +
			"or give the generator state from a report together with the domain " +
			"settings to regenerate it.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"transformation": map[string]any{
					"type":        "string",
					"description": "Name of a built-in transformation; see list_transforms",
				},
				"command": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "External command argv checked as the transformation; needs a server started with exec allowed",
				},
				"input": map[string]any{
					"type":        "string",
					"description": "The input to replay",
				},
				"state": map[string]any{
					"type":        "string",
					"description": "Generator state 'seed:draws' from a report, used to regenerate the input instead of giving it directly",
				},
				"alphabet": map[string]any{
					"type":        "string",
					"description": "Alphabet the state was recorded against (default printable); ignored when input is given",
				},
				"min_length": map[string]any{
					"type":        "integer",
					"description": "Minimum length the state was recorded against; ignored when input is given",
				},
				"max_length": map[string]any{
					"type":        "integer",
					"description": "Maximum length the state was recorded against (default 32); ignored when input is given",
				},
			},
		},
	}
}

type runCheckArgs struct {
	Transformation string   `json:"transformation"`
	Command        []string `json:"command"`
	Alphabet       string   `json:"alphabet"`
	MinLength      int      `json:"min_length"`
	MaxLength      *int     `json:"max_length"`
	Trials         int      `json:"trials"`
	Seed           uint64   `json:"seed"`
	Precondition   string   `json:"precondition"`
	CollectAll     bool     `json:"collect_all"`
	NoShrink       bool     `json:"no_shrink"`
	ShrinkBudget   int      `json:"shrink_budget"`
	Runs           int      `json:"runs"`
	Stats          bool     `json:"stats"`
}

func (s *Server) handleRunCheck(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args runCheckArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}

	if len(args.Command) > 0 && !s.allowExec {
		return errorResult("command transformations are disabled on this server; use a built-in transformation or restart with exec allowed"), nil
	}

	cfg := config.Default()
	cfg.Transformation = args.Transformation
	cfg.Command = args.Command
	if args.Alphabet != "" {
		cfg.Alphabet = args.Alphabet
	}
	cfg.MinLength = args.MinLength
	if args.MaxLength != nil {
		cfg.MaxLength = *args.MaxLength
	}
	if args.Trials > 0 {
		cfg.Trials = args.Trials
	}
	cfg.Seed = args.Seed
	cfg.Precondition = args.Precondition
	cfg.CollectAll = args.CollectAll
	cfg.NoShrink = args.NoShrink
	cfg.ShrinkBudget = args.ShrinkBudget
	if args.Runs > 0 {
		cfg.Runs = args.Runs
	}
	cfg.Stats = args.Stats

	if s.maxTrials > 0 && cfg.Trials*cfg.Runs > s.maxTrials {
		return errorResult("%d trials across %d runs exceeds this server's cap of %d", cfg.Trials, cfg.Runs, s.maxTrials), nil
	}

	plan, err := check.Build(cfg)
	if err != nil {
		return errorResult("%v", err), nil
	}

	logrus.WithFields(logrus.Fields{
		"tool":           ToolRunCheck,
		"transformation": plan.Transformation.Name(),
		"trials":         cfg.Trials,
		"runs":           cfg.Runs,
	}).Info("running check")

	if cfg.Runs > 1 {
		camp, runErr := plan.RunCampaign(ctx)
		return reportResult(camp, runErr)
	}
	rep, runErr := plan.Run(ctx)
	return reportResult(rep, runErr)
}

func (s *Server) handleListTransforms(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	entries := make([]entry, 0)
	for _, name := range transform.BuiltinNames() {
		entries = append(entries, entry{Name: name, Description: transform.BuiltinDescription(name)})
	}
	return jsonResult(entries)
}

type replayCaseArgs struct {
	Transformation string   `json:"transformation"`
	Command        []string `json:"command"`
	Input          string   `json:"input"`
	State          string   `json:"state"`
	Alphabet       string   `json:"alphabet"`
	MinLength      int      `json:"min_length"`
	MaxLength      *int     `json:"max_length"`
}

// replayResult is the JSON shape replay_case returns.
type replayResult struct {
	Transformation string `json:"transformation"`
	Input          string `json:"input"`
	Outcome        string `json:"outcome"`
	Output1        string `json:"output1,omitempty"`
	Output2        string `json:"output2,omitempty"`
	SkipReason     string `json:"skipReason,omitempty"`
	Rejection      string `json:"rejection,omitempty"`
	Fault          string `json:"fault,omitempty"`
}

func (s *Server) handleReplayCase(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args replayCaseArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}

	if len(args.Command) > 0 && !s.allowExec {
		return errorResult("command transformations are disabled on this server; use a built-in transformation or restart with exec allowed"), nil
	}

	tr, err := replayTransformation(args)
	if err != nil {
		return errorResult("%v", err), nil
	}

	input, err := replayInput(args)
	if err != nil {
		return errorResult("%v", err), nil
	}

	outcome := property.NewIdempotence().Evaluate(ctx, tr, input)
	res := replayResult{
		Transformation: tr.Name(),
		Input:          input,
		Outcome:        outcome.Kind.String(),
		Output1:        outcome.Output1,
		Output2:        outcome.Output2,
		SkipReason:     outcome.SkipReason,
		Rejection:      outcome.Rejection,
	}
	if outcome.Cause != nil {
		res.Fault = outcome.Cause.Error()
	}
	return jsonResult(res)
}

func replayTransformation(args replayCaseArgs) (transform.Transformation, error) {
	switch {
	case args.Transformation != "" && len(args.Command) > 0:
		return nil, fmt.Errorf("'transformation' and 'command' are mutually exclusive")
	case args.Transformation != "":
		return transform.Builtin(args.Transformation)
	case len(args.Command) > 0:
		return transform.NewExec(args.Command)
	default:
		return nil, fmt.Errorf("a transformation is required: set 'transformation' or 'command'")
	}
}

func replayInput(args replayCaseArgs) (string, error) {
	switch {
	case args.Input != "" && args.State != "":
		return "", fmt.Errorf("'input' and 'state' are mutually exclusive")
	case args.Input != "":
		return args.Input, nil
	case args.State == "":
		return "", fmt.Errorf("an input is required: set 'input' or 'state'")
	}

	state, err := generator.ParseState(args.State)
	if err != nil {
		return "", err
	}

	alphabetSpec := args.Alphabet
	if alphabetSpec == "" {
		alphabetSpec = "printable"
	}
	alphabet, err := domain.ParseAlphabet(alphabetSpec)
	if err != nil {
		return "", err
	}
	maxLength := 32
	if args.MaxLength != nil {
		maxLength = *args.MaxLength
	}
	dom, err := domain.New(alphabet, args.MinLength, maxLength)
	if err != nil {
		return "", err
	}

	tc, _ := generator.New(dom).Next(state)
	return tc.Input, nil
}
