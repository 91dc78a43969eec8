package dispatch

import (
	"context"
	"testing"

	"github.com/cuioss/plan-marshall/internal/executor"
	"github.com/cuioss/plan-marshall/internal/planerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotation(t *testing.T) {
	n, err := ParseNotation("go:implementation:verify")
	require.NoError(t, err)
	assert.Equal(t, "go", n.Bundle)
	assert.Equal(t, "implementation", n.Skill)
	assert.Equal(t, "verify", n.Script)
	assert.Equal(t, "go:implementation:verify", n.String())
}

func TestParseNotationRejectsMalformed(t *testing.T) {
	_, err := ParseNotation("go:implementation")
	assert.True(t, planerrors.Is(err, planerrors.KindInvalidInput))
}

func TestParseInvocation(t *testing.T) {
	inv, err := ParseInvocation("go:implementation:verify go test ./...")
	require.NoError(t, err)
	assert.Equal(t, "go", inv.Notation.Bundle)
	assert.Equal(t, "go", inv.Command)
	assert.Equal(t, []string{"test", "./..."}, inv.Args)
}

func TestParseInvocationRejectsMissingCommand(t *testing.T) {
	_, err := ParseInvocation("go:implementation:verify")
	assert.True(t, planerrors.Is(err, planerrors.KindInvalidInput))
}

func TestRouterDispatchesToRegisteredHandler(t *testing.T) {
	router := NewRouter(executor.New(nil))
	called := false
	router.Register("go", "implementation", func(_ context.Context, inv Invocation, _ []string, _ string, _ int) (executor.Result, error) {
		called = true
		return executor.Result{Status: executor.StatusSuccess}, nil
	})

	inv, err := ParseInvocation("go:implementation:verify echo hi")
	require.NoError(t, err)
	result, err := router.Dispatch(context.Background(), inv, nil, t.TempDir(), 5)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, executor.StatusSuccess, result.Status)
}

func TestRouterFallsThroughToDirectExec(t *testing.T) {
	router := NewRouter(executor.New(nil))
	inv, err := ParseInvocation("go:implementation:verify true")
	require.NoError(t, err)
	result, err := router.Dispatch(context.Background(), inv, nil, t.TempDir(), 5)
	require.NoError(t, err)
	assert.Equal(t, executor.StatusSuccess, result.Status)
}

func TestWithPlanBaseDirReplacesExisting(t *testing.T) {
	env := WithPlanBaseDir([]string{"PLAN_BASE_DIR=/old", "FOO=bar"}, "/new")
	assert.Contains(t, env, "PLAN_BASE_DIR=/new")
	assert.Contains(t, env, "FOO=bar")
	assert.NotContains(t, env, "PLAN_BASE_DIR=/old")
}
