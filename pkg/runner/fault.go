package runner

import (
	"errors"
	"fmt"
)

// HarnessFault is the only error Run returns. It means the harness's
// assumptions broke, not that the transformation failed the property: an
// error outside the transformation's declared contract, a hang cut off by
// the per-trial timeout, or a cancelled run. The triggering cause is
// preserved for errors.Is and errors.As.
type HarnessFault struct {
	TrialIndex int
	Input      string
	Cause      error
}

func (e *HarnessFault) Error() string {
	return fmt.Sprintf("harness fault at trial %d: %v", e.TrialIndex, e.Cause)
}

func (e *HarnessFault) Unwrap() error {
	return e.Cause
}

// IsHarnessFault reports whether err is or wraps a HarnessFault.
func IsHarnessFault(err error) bool {
	var fault *HarnessFault
	return errors.As(err, &fault)
}
