package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ApplyEnv overlays FIXPOINT_* environment variables onto the config.
// Unset variables leave their fields alone, so the precedence is
// flags > environment > file > defaults when the caller applies flags
// afterwards.
func (c *CheckConfig) ApplyEnv() error {
	if v, ok := os.LookupEnv("FIXPOINT_TRANSFORMATION"); ok {
		c.Transformation = v
	}
	if v, ok := os.LookupEnv("FIXPOINT_ALPHABET"); ok {
		c.Alphabet = v
	}
	if v, ok := os.LookupEnv("FIXPOINT_PRECONDITION"); ok {
		c.Precondition = v
	}

	if err := envUint64("FIXPOINT_SEED", &c.Seed); err != nil {
		return err
	}
	if err := envInt("FIXPOINT_TRIALS", &c.Trials); err != nil {
		return err
	}
	if err := envInt("FIXPOINT_MIN_LENGTH", &c.MinLength); err != nil {
		return err
	}
	if err := envInt("FIXPOINT_MAX_LENGTH", &c.MaxLength); err != nil {
		return err
	}
	if err := envInt("FIXPOINT_SHRINK_BUDGET", &c.ShrinkBudget); err != nil {
		return err
	}
	if err := envInt("FIXPOINT_RUNS", &c.Runs); err != nil {
		return err
	}
	if err := envInt("FIXPOINT_WORKERS", &c.Workers); err != nil {
		return err
	}
	if err := envBool("FIXPOINT_COLLECT_ALL", &c.CollectAll); err != nil {
		return err
	}
	if err := envBool("FIXPOINT_NO_SHRINK", &c.NoShrink); err != nil {
		return err
	}
	if err := envBool("FIXPOINT_STATS", &c.Stats); err != nil {
		return err
	}
	if err := envDuration("FIXPOINT_PER_TRIAL_TIMEOUT", &c.PerTrialTimeout); err != nil {
		return err
	}
	return nil
}

func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", name, v)
	}
	*dst = n
	return nil
}

func envUint64(name string, dst *uint64) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid unsigned integer %q", name, v)
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", name, v)
	}
	*dst = b
	return nil
}

func envDuration(name string, dst *Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", name, v)
	}
	dst.Duration = d
	return nil
}
