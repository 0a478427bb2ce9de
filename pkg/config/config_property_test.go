package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fixpoint-sh/fixpoint/internal/proptest"
)

func TestConfigProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property tests in short mode")
	}

	parameters := proptest.FastTestParameters()
	properties := gopter.NewProperties(parameters)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	properties.Property("save then load round-trips valid configs", prop.ForAll(
		func(trials, minLen, spread int, alphabet string, collectAll bool) bool {
			cfg := Default()
			cfg.Transformation = "identity"
			cfg.Trials = trials
			cfg.Alphabet = alphabet
			cfg.MinLength = minLen
			cfg.MaxLength = minLen + spread
			cfg.CollectAll = collectAll

			if cfg.Validate() != nil {
				return false
			}
			if err := Save(path, cfg); err != nil {
				return false
			}
			loaded, err := Load(path)
			if err != nil {
				return false
			}
			return cmp.Equal(cfg, loaded)
		},
		gen.IntRange(1, 100000),
		gen.IntRange(0, 50),
		gen.IntRange(0, 50),
		gen.OneConstOf("digits", "lower", "alnum", "printable"),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
