package transform

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellTransform(t *testing.T, script string, opts ...ExecOption) *Exec {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("exec tests use POSIX shell scripts")
	}
	e, err := NewExec([]string{"sh", "-c", script}, opts...)
	require.NoError(t, err)
	return e
}

func TestNewExecEmptyArgv(t *testing.T) {
	_, err := NewExec(nil)
	require.Error(t, err)
}

func TestExecName(t *testing.T) {
	e, err := NewExec([]string{"/usr/local/bin/fmt-phone", "--strict"})
	require.NoError(t, err)
	assert.Equal(t, "fmt-phone", e.Name())
}

func TestExecEchoesStdout(t *testing.T) {
	e := shellTransform(t, "cat")

	out, err := e.Apply(context.Background(), "555-0199")
	require.NoError(t, err)
	assert.Equal(t, "555-0199", out)
}

func TestExecTrimsOneTrailingNewline(t *testing.T) {
	e := shellTransform(t, `cat; printf '\n\n'`)

	out, err := e.Apply(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)
}

func TestExecInvalidExitCode(t *testing.T) {
	e := shellTransform(t, `cat >/dev/null; echo 'not a phone number' >&2; exit 2`)

	_, err := e.Apply(context.Background(), "zzz")
	require.Error(t, err)
	require.True(t, IsInvalidInput(err))

	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "zzz", invalid.Input)
	assert.Equal(t, "not a phone number", invalid.Reason)
}

func TestExecCustomInvalidExitCode(t *testing.T) {
	e := shellTransform(t, "cat >/dev/null; exit 3", WithInvalidExitCode(3))

	_, err := e.Apply(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))

	// With the mapping moved to 3, code 2 is an ordinary fault again.
	e = shellTransform(t, "cat >/dev/null; exit 2", WithInvalidExitCode(3))
	_, err = e.Apply(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, IsInvalidInput(err))
}

func TestExecFault(t *testing.T) {
	e := shellTransform(t, "cat >/dev/null; echo boom >&2; exit 7")

	_, err := e.Apply(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, IsInvalidInput(err))
	assert.Contains(t, err.Error(), "code 7")
	assert.Contains(t, err.Error(), "boom")
}

func TestExecTimeout(t *testing.T) {
	e := shellTransform(t, "sleep 5")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Apply(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsInvalidInput(err))
}
