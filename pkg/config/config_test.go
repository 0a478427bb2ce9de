package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *CheckConfig {
	cfg := Default()
	cfg.Transformation = "dash-digits"
	cfg.Alphabet = "digits"
	cfg.MaxLength = 14
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Transformation)
	assert.Equal(t, 100, cfg.Trials)
	assert.Equal(t, "printable", cfg.Alphabet)
	assert.Equal(t, 0, cfg.MinLength)
	assert.Equal(t, 32, cfg.MaxLength)
	assert.Equal(t, 1, cfg.Runs)
	assert.False(t, cfg.CollectAll, "stop at the first violation by default")
	assert.False(t, cfg.NoShrink)
	assert.Zero(t, cfg.PerTrialTimeout.Duration)
}

func TestLoadAppliesDefaultsForAbsentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transformation: lower\ntrials: 500\n"), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "lower", cfg.Transformation)
	assert.Equal(t, 500, cfg.Trials)
	assert.Equal(t, "printable", cfg.Alphabet)
	assert.Equal(t, 32, cfg.MaxLength)
	assert.Equal(t, 1, cfg.Runs)
}

func TestLoadFullConfig(t *testing.T) {
	raw := `
command: [sh, -c, "tr a-z A-Z"]
invalid_exit_code: 3
seed: 1234
trials: 2000
alphabet: digits
min_length: 1
max_length: 14
precondition: LengthAtLeast(2)
collect_all: true
shrink_budget: 500
per_trial_timeout: 250ms
runs: 4
workers: 2
stats: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"sh", "-c", "tr a-z A-Z"}, cfg.Command)
	assert.Equal(t, 3, cfg.InvalidExitCode)
	assert.Equal(t, uint64(1234), cfg.Seed)
	assert.Equal(t, 2000, cfg.Trials)
	assert.Equal(t, "digits", cfg.Alphabet)
	assert.Equal(t, 1, cfg.MinLength)
	assert.Equal(t, 14, cfg.MaxLength)
	assert.Equal(t, "LengthAtLeast(2)", cfg.Precondition)
	assert.True(t, cfg.CollectAll)
	assert.Equal(t, 500, cfg.ShrinkBudget)
	assert.Equal(t, 250*time.Millisecond, cfg.PerTrialTimeout.Duration)
	assert.Equal(t, 4, cfg.Runs)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Stats)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trials: [not an int\n"), 0644))

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Seed = 42
	cfg.Precondition = `!Contains("-")`
	cfg.PerTrialTimeout = Duration{Duration: 2 * time.Second}
	cfg.Runs = 3
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(cfg, loaded))

	// The temp file must not survive a successful save.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "config.yaml")

	require.NoError(t, Save(path, validConfig()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveNilConfig(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "config.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CheckConfig)
		wantErr string
	}{
		{
			name:   "valid builtin",
			mutate: func(c *CheckConfig) {},
		},
		{
			name: "valid command",
			mutate: func(c *CheckConfig) {
				c.Transformation = ""
				c.Command = []string{"cat"}
				c.InvalidExitCode = 3
				c.ExecRateLimit = 10
			},
		},
		{
			name: "no transformation",
			mutate: func(c *CheckConfig) {
				c.Transformation = ""
			},
			wantErr: "a transformation is required",
		},
		{
			name: "both transformation and command",
			mutate: func(c *CheckConfig) {
				c.Command = []string{"cat"}
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "exit code without command",
			mutate: func(c *CheckConfig) {
				c.InvalidExitCode = 3
			},
			wantErr: "only applies to command",
		},
		{
			name: "rate limit without command",
			mutate: func(c *CheckConfig) {
				c.ExecRateLimit = 5
			},
			wantErr: "only applies to command",
		},
		{
			name: "exit code out of range",
			mutate: func(c *CheckConfig) {
				c.Transformation = ""
				c.Command = []string{"cat"}
				c.InvalidExitCode = 300
			},
			wantErr: "[0, 255]",
		},
		{
			name: "zero trials",
			mutate: func(c *CheckConfig) {
				c.Trials = 0
			},
			wantErr: "trials must be positive",
		},
		{
			name: "negative min length",
			mutate: func(c *CheckConfig) {
				c.MinLength = -1
			},
			wantErr: "minimum length cannot be negative",
		},
		{
			name: "max below min",
			mutate: func(c *CheckConfig) {
				c.MinLength = 5
				c.MaxLength = 3
			},
			wantErr: "below minimum length",
		},
		{
			name: "empty alphabet",
			mutate: func(c *CheckConfig) {
				c.Alphabet = ""
			},
			wantErr: "alphabet",
		},
		{
			name: "bad precondition",
			mutate: func(c *CheckConfig) {
				c.Precondition = "NoSuchFunction(1)"
			},
			wantErr: "invalid precondition",
		},
		{
			name: "negative shrink budget",
			mutate: func(c *CheckConfig) {
				c.ShrinkBudget = -1
			},
			wantErr: "shrink_budget",
		},
		{
			name: "negative timeout",
			mutate: func(c *CheckConfig) {
				c.PerTrialTimeout = Duration{Duration: -time.Second}
			},
			wantErr: "per_trial_timeout",
		},
		{
			name: "zero runs",
			mutate: func(c *CheckConfig) {
				c.Runs = 0
			},
			wantErr: "runs must be positive",
		},
		{
			name: "negative workers",
			mutate: func(c *CheckConfig) {
				c.Workers = -2
			},
			wantErr: "workers cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDomainResolution(t *testing.T) {
	cfg := validConfig()

	dom, err := cfg.Domain()

	require.NoError(t, err)
	assert.Equal(t, "0123456789", dom.Alphabet.String())
	assert.Equal(t, 0, dom.MinLength)
	assert.Equal(t, 14, dom.MaxLength)
}

func TestDurationYAML(t *testing.T) {
	out, err := yaml.Marshal(Duration{Duration: 90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "1m30s\n", string(out))

	var d Duration
	require.NoError(t, yaml.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Duration)

	require.NoError(t, yaml.Unmarshal([]byte(`""`), &d))
	assert.Zero(t, d.Duration)

	assert.Error(t, yaml.Unmarshal([]byte(`"bogus"`), &d))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FIXPOINT_TRANSFORMATION", "lower")
	t.Setenv("FIXPOINT_SEED", "99")
	t.Setenv("FIXPOINT_TRIALS", "750")
	t.Setenv("FIXPOINT_ALPHABET", "digits")
	t.Setenv("FIXPOINT_MAX_LENGTH", "14")
	t.Setenv("FIXPOINT_COLLECT_ALL", "true")
	t.Setenv("FIXPOINT_PER_TRIAL_TIMEOUT", "1s")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "lower", cfg.Transformation)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, 750, cfg.Trials)
	assert.Equal(t, "digits", cfg.Alphabet)
	assert.Equal(t, 14, cfg.MaxLength)
	assert.True(t, cfg.CollectAll)
	assert.Equal(t, time.Second, cfg.PerTrialTimeout.Duration)
	// Untouched fields keep their values.
	assert.Equal(t, 0, cfg.MinLength)
	assert.Equal(t, 1, cfg.Runs)
}

func TestApplyEnvBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad trials", "FIXPOINT_TRIALS", "many"},
		{"bad seed", "FIXPOINT_SEED", "-1"},
		{"bad bool", "FIXPOINT_NO_SHRINK", "yep"},
		{"bad duration", "FIXPOINT_PER_TRIAL_TIMEOUT", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			err := Default().ApplyEnv()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestGetConfigDirOverride(t *testing.T) {
	t.Setenv("FIXPOINT_CONFIG_DIR", "/custom/fixpoint")

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/fixpoint", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/fixpoint", "config.yaml"), path)
}
