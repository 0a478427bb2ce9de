// Package config provides run configuration for fixpoint checks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fixpoint-sh/fixpoint/pkg/domain"
	"github.com/fixpoint-sh/fixpoint/pkg/precondition"
)

// CheckConfig describes one idempotence check: which transformation to
// run, the input domain to draw from, and how hard to search. The zero
// value of CollectAll means the check stops at the first violation.
type CheckConfig struct {
	// Transformation names a built-in transformation to check.
	Transformation string `yaml:"transformation,omitempty"`

	// Command is an external command checked as the transformation:
	// input on stdin, output on stdout. Mutually exclusive with
	// Transformation.
	Command []string `yaml:"command,omitempty,flow"`

	// InvalidExitCode is the exit code with which the command rejects an
	// input as outside its domain. Zero keeps the default of 2.
	InvalidExitCode int `yaml:"invalid_exit_code,omitempty"`

	// ExecRateLimit caps command invocations per second. Zero means
	// unlimited.
	ExecRateLimit float64 `yaml:"exec_rate_limit,omitempty"`

	// Seed is the base seed for input generation. Zero picks a
	// time-based seed when the check starts.
	Seed uint64 `yaml:"seed,omitempty"`

	// Trials is the number of inputs to generate and check.
	Trials int `yaml:"trials"`

	// Alphabet is the character set inputs draw from: a named class
	// (digits, lower, alnum, printable, phone) or a literal character list.
	Alphabet string `yaml:"alphabet"`

	// MinLength and MaxLength bound generated input lengths, in runes.
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`

	// Precondition is a predicate expression over candidate inputs;
	// inputs it rejects are skipped. Empty admits everything.
	Precondition string `yaml:"precondition,omitempty"`

	// CollectAll keeps checking after the first violation instead of
	// stopping.
	CollectAll bool `yaml:"collect_all,omitempty"`

	// ShrinkBudget caps candidate evaluations per shrink. Zero keeps the
	// shrinker's default.
	ShrinkBudget int `yaml:"shrink_budget,omitempty"`

	// NoShrink reports violations as found, without minimizing them.
	NoShrink bool `yaml:"no_shrink,omitempty"`

	// PerTrialTimeout bounds each transformation application. Zero means
	// no timeout.
	PerTrialTimeout Duration `yaml:"per_trial_timeout,omitempty"`

	// Runs is the number of independent runs, each with a seed derived
	// from Seed.
	Runs int `yaml:"runs,omitempty"`

	// Workers caps how many runs execute concurrently. Zero uses
	// GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`

	// Stats enables input-length and latency statistics in the report.
	Stats bool `yaml:"stats,omitempty"`
}

// Duration is a wrapper around time.Duration for YAML serialization.
type Duration struct {
	time.Duration
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Default returns a CheckConfig with the documented defaults. The
// transformation is left empty; it has no sensible default.
func Default() *CheckConfig {
	return &CheckConfig{
		Trials:    100,
		Alphabet:  "printable",
		MinLength: 0,
		MaxLength: 32,
		Runs:      1,
	}
}

// Validate checks the configuration for contradictions. It resolves the
// alphabet and compiles the precondition so mistakes surface before any
// trial runs.
func (c *CheckConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Transformation == "" && len(c.Command) == 0 {
		return fmt.Errorf("a transformation is required: set 'transformation' or 'command'")
	}
	if c.Transformation != "" && len(c.Command) > 0 {
		return fmt.Errorf("'transformation' and 'command' are mutually exclusive")
	}
	if len(c.Command) == 0 {
		if c.InvalidExitCode != 0 {
			return fmt.Errorf("'invalid_exit_code' only applies to command transformations")
		}
		if c.ExecRateLimit != 0 {
			return fmt.Errorf("'exec_rate_limit' only applies to command transformations")
		}
	}
	if c.InvalidExitCode < 0 || c.InvalidExitCode > 255 {
		return fmt.Errorf("invalid_exit_code must be in [0, 255], got %d", c.InvalidExitCode)
	}
	if c.ExecRateLimit < 0 {
		return fmt.Errorf("exec_rate_limit cannot be negative, got %g", c.ExecRateLimit)
	}

	if c.Trials <= 0 {
		return fmt.Errorf("trials must be positive, got %d", c.Trials)
	}
	if _, err := c.Domain(); err != nil {
		return err
	}
	if c.Precondition != "" {
		if _, err := precondition.Compile(c.Precondition); err != nil {
			return fmt.Errorf("invalid precondition: %w", err)
		}
	}

	if c.ShrinkBudget < 0 {
		return fmt.Errorf("shrink_budget cannot be negative, got %d", c.ShrinkBudget)
	}
	if c.PerTrialTimeout.Duration < 0 {
		return fmt.Errorf("per_trial_timeout cannot be negative, got %s", c.PerTrialTimeout)
	}
	if c.Runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", c.Runs)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Workers)
	}

	return nil
}

// Domain resolves the configured alphabet and length bounds.
func (c *CheckConfig) Domain() (domain.Domain, error) {
	alphabet, err := domain.ParseAlphabet(c.Alphabet)
	if err != nil {
		return domain.Domain{}, err
	}
	return domain.New(alphabet, c.MinLength, c.MaxLength)
}

// Load reads a configuration file. Keys absent from the file keep their
// defaults.
func Load(path string) (*CheckConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration atomically: to a temp file first, then
// renamed into place.
func Save(path string, cfg *CheckConfig) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// GetConfigDir returns the platform-specific configuration directory.
func GetConfigDir() (string, error) {
	// Check for override environment variable
	if dir := os.Getenv("FIXPOINT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		// macOS: ~/Library/Application Support/fixpoint
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support", "fixpoint")

	case "windows":
		// Windows: %APPDATA%\fixpoint
		appData := os.Getenv("APPDATA")
		if appData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		baseDir = filepath.Join(appData, "fixpoint")

	default:
		// Linux/Unix: ~/.config/fixpoint (XDG Base Directory Specification)
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			xdgConfig = filepath.Join(homeDir, ".config")
		}
		baseDir = filepath.Join(xdgConfig, "fixpoint")
	}

	return baseDir, nil
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
