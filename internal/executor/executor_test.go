package executor

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	e := New(nil)
	result, err := e.Run(context.Background(), Request{
		Command:        "/bin/sh",
		Args:           []string{"-c", "echo hello"},
		TimeoutSeconds: 5,
		Mode:           ModeStructured,
		LogDir:         t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 0, result.ExitCode)
	assert.NotEmpty(t, result.LogFilePath)
}

func TestRunNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	e := New(nil)
	result, err := e.Run(context.Background(), Request{
		Command:        "/bin/sh",
		Args:           []string{"-c", "exit 3"},
		TimeoutSeconds: 5,
		Mode:           ModeErrors,
		LogDir:         t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, 3, result.ExitCode)
}

func TestRunInnerTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	e := New(nil)
	result, err := e.Run(context.Background(), Request{
		Command:        "/bin/sh",
		Args:           []string{"-c", "sleep 5"},
		TimeoutSeconds: 1,
		Mode:           ModeErrors,
		LogDir:         t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, result.Status)
	assert.Equal(t, 124, result.ExitCode)
}

func TestOuterDeadlineExceedsInner(t *testing.T) {
	assert.Greater(t, slackSeconds, 0)
}

func TestGoParserCompilationError(t *testing.T) {
	parser := GoParser{}
	output := "internal/foo/bar.go:12:5: undefined: Baz\n"
	errs := parser.Parse(output)
	require.Len(t, errs, 1)
	assert.Equal(t, "internal/foo/bar.go", errs[0].File)
	assert.Equal(t, 12, errs[0].Line)
	assert.Equal(t, CategoryCompilation, errs[0].Category)
}

func TestGoParserTestFailure(t *testing.T) {
	parser := GoParser{}
	output := "--- FAIL: TestSomething (0.00s)\n"
	errs := parser.Parse(output)
	require.Len(t, errs, 1)
	assert.Equal(t, CategoryTestFailure, errs[0].Category)
}

func TestGoParserTypeMismatch(t *testing.T) {
	parser := GoParser{}
	output := "pkg/a.go:3:1: cannot use x (type int) as type string\n"
	errs := parser.Parse(output)
	require.Len(t, errs, 1)
	assert.Equal(t, CategoryType, errs[0].Category)
}

func TestLintParserMarksWarning(t *testing.T) {
	parser := LintParser{}
	output := "pkg/a.go:10:2: unused variable x (unused)\n"
	errs := parser.Parse(output)
	require.Len(t, errs, 1)
	assert.True(t, errs[0].Warning)
	assert.Equal(t, CategoryLint, errs[0].Category)
}

func TestMarkAcceptedHonorsAllowList(t *testing.T) {
	errs := []ParsedError{
		{Message: "unused variable x (unused)", Warning: true},
		{Message: "shadowed variable y", Warning: true},
	}
	markAccepted(errs, []string{"unused variable"})
	assert.True(t, errs[0].Accepted)
	assert.False(t, errs[1].Accepted)
}

func TestRenderActionableDropsAcceptedWarnings(t *testing.T) {
	errs := []ParsedError{
		{File: "a.go", Line: 1, Message: "accepted one", Warning: true, Accepted: true},
		{File: "b.go", Line: 2, Message: "real error"},
	}
	out := render(errs, ModeActionable)
	assert.NotContains(t, out, "accepted one")
	assert.Contains(t, out, "real error")
}
