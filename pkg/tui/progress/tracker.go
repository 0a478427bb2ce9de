// Package progress renders a live view of a running check: a progress
// bar with outcome tallies, plus a spinner while a counterexample is
// being shrunk. The runner goroutines write a shared tracker and the
// view polls it on a timer, so a slow terminal never slows the check
// down.
package progress

import (
	"sync"

	"github.com/fixpoint-sh/fixpoint/pkg/property"
	"github.com/fixpoint-sh/fixpoint/pkg/runner"
)

// Tracker accumulates progress across every run of a check. It is safe
// for concurrent use; campaign runs share one tracker.
type Tracker struct {
	mu       sync.Mutex
	trials   int
	passed   int
	skipped  int
	violated int
	faulted  int
	latest   string

	// shrinkInput is the input currently being minimized; empty when no
	// shrink is in flight. The runner emits a shrink event when one
	// starts, and the next trial event means it finished.
	shrinkInput string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Hook returns a runner progress hook feeding this tracker.
func (t *Tracker) Hook() func(runner.Progress) {
	return func(p runner.Progress) {
		t.mu.Lock()
		defer t.mu.Unlock()

		if p.Shrinking {
			t.shrinkInput = p.Input
			return
		}

		t.trials++
		t.latest = p.Input
		t.shrinkInput = ""
		switch p.Kind {
		case property.Passed:
			t.passed++
		case property.Skipped:
			t.skipped++
		case property.Violated:
			t.violated++
		case property.Faulted:
			t.faulted++
		}
	}
}

// snapshot is a point-in-time copy of the tracker for rendering.
type snapshot struct {
	trials      int
	passed      int
	skipped     int
	violated    int
	faulted     int
	latest      string
	shrinkInput string
}

func (t *Tracker) snap() snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return snapshot{
		trials:      t.trials,
		passed:      t.passed,
		skipped:     t.skipped,
		violated:    t.violated,
		faulted:     t.faulted,
		latest:      t.latest,
		shrinkInput: t.shrinkInput,
	}
}
