// Package testutil provides shared fixtures for fixpoint tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// TempScript writes body to an executable file under the test's temp
// directory and returns its path. Tests use it to build external
// command transformations without shipping fixture binaries.
func TempScript(t *testing.T, body string) string {
	t.Helper()
	RequireShell(t)

	path := filepath.Join(t.TempDir(), "transform.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write temp script: %v", err)
	}
	return path
}

// TempConfig writes a YAML check configuration to a temp file and
// returns its path.
func TempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

// RequireShell skips the test when no POSIX shell is available.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
}

// IdentityScript copies stdin to stdout unchanged. Idempotent.
const IdentityScript = `#!/bin/sh
cat
`

// UpperScript uppercases ASCII letters. Idempotent.
const UpperScript = `#!/bin/sh
tr a-z A-Z
`

// AppendBangScript appends "!" on every application, so it violates
// idempotence on every input.
const AppendBangScript = `#!/bin/sh
printf '%s!' "$(cat)"
`

// StripDashesScript removes "-" characters. Idempotent.
const StripDashesScript = `#!/bin/sh
tr -d '-'
`

// RejectLongScript exits with the invalid-input code when stdin is
// longer than 8 bytes, and otherwise copies it through. Exercises the
// skip path of command transformations.
const RejectLongScript = `#!/bin/sh
input=$(cat)
if [ ${#input} -gt 8 ]; then
  exit 2
fi
printf '%s' "$input"
`

// FaultScript always exits 1 without output, so every application is a
// harness fault.
const FaultScript = `#!/bin/sh
exit 1
`

// SleepScript sleeps long enough to trip any sane per-trial timeout.
const SleepScript = `#!/bin/sh
sleep 10
`
