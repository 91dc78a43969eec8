// Package dispatch implements the Dispatcher/Router: parsing the
// compact "<bundle>:<skill>:<script> <command> [args...]" notation used
// throughout deliverables and tasks, resolving it to a registered handler,
// and running it with the environment the Command Executor expects.
//
// Follows a GateChecker.Check-style switch
// dispatch, generalized from a fixed set of gate kinds to an open handler
// registry keyed by the bundle:skill part of the notation.
package dispatch

import (
	"context"
	"strings"

	"github.com/cuioss/plan-marshall/internal/executor"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// Notation is one parsed "<bundle>:<skill>:<script>" routing key.
type Notation struct {
	Bundle string
	Skill  string
	Script string
}

// String renders the notation back to its canonical colon-separated form.
func (n Notation) String() string {
	return n.Bundle + ":" + n.Skill + ":" + n.Script
}

// ParseNotation parses "<bundle>:<skill>:<script>" into its three parts.
func ParseNotation(raw string) (Notation, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Notation{}, planerrors.New(planerrors.KindInvalidInput, "malformed bundle:skill:script notation: "+raw)
	}
	return Notation{Bundle: parts[0], Skill: parts[1], Script: parts[2]}, nil
}

// Invocation is one resolved dispatch request: a notation plus the command
// line to run under it.
type Invocation struct {
	Notation Notation
	Command  string
	Args     []string
}

// ParseInvocation splits a full "<bundle>:<skill>:<script> <command>
// [args...]" line into its routing notation and the command to execute.
func ParseInvocation(line string) (Invocation, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Invocation{}, planerrors.New(planerrors.KindInvalidInput, "empty dispatch invocation")
	}
	notation, err := ParseNotation(fields[0])
	if err != nil {
		return Invocation{}, err
	}
	if len(fields) < 2 {
		return Invocation{}, planerrors.New(planerrors.KindInvalidInput, "dispatch invocation has no command: "+line)
	}
	return Invocation{Notation: notation, Command: fields[1], Args: fields[2:]}, nil
}

// Handler executes one resolved invocation and returns the Command
// Executor's structured result.
type Handler func(ctx context.Context, inv Invocation, env []string, workingDir string, timeoutSeconds int) (executor.Result, error)

// Router holds a table of handlers keyed by bundle:skill notation (the
// script segment is handler-specific, matching a GateChecker
// dispatching by gate kind and letting each check function decide its own
// sub-behavior).
type Router struct {
	exec     *executor.Executor
	handlers map[string]Handler
}

// NewRouter constructs a Router backed by exec for any handler that falls
// through to Run.
func NewRouter(exec *executor.Executor) *Router {
	return &Router{exec: exec, handlers: make(map[string]Handler)}
}

// Register binds bundle:skill to handler. Script-specific dispatch is left
// to the handler itself.
func (r *Router) Register(bundle, skill string, handler Handler) {
	r.handlers[bundle+":"+skill] = handler
}

// Dispatch resolves inv's bundle:skill pair to a registered Handler and
// runs it; with no registered handler it falls through to a direct
// executor.Run of inv.Command/Args, the generic path every bundle:skill
// pair works with even before a domain-specific handler is registered.
func (r *Router) Dispatch(ctx context.Context, inv Invocation, env []string, workingDir string, timeoutSeconds int) (executor.Result, error) {
	key := inv.Notation.Bundle + ":" + inv.Notation.Skill
	if handler, ok := r.handlers[key]; ok {
		return handler(ctx, inv, env, workingDir, timeoutSeconds)
	}
	return r.exec.Run(ctx, executor.Request{
		Command:        inv.Command,
		Args:           inv.Args,
		Env:            env,
		WorkingDir:     workingDir,
		TimeoutSeconds: timeoutSeconds,
		Mode:           executor.ModeStructured,
		LogDir:         workingDir,
	})
}

// PlanBaseDirEnv is the environment variable name the Dispatcher sets for
// every invocation so handlers and scripts can locate the Artifact Store
// without re-deriving it.
const PlanBaseDirEnv = "PLAN_BASE_DIR"

// WithPlanBaseDir appends PLAN_BASE_DIR=baseDir to env, replacing any
// existing entry.
func WithPlanBaseDir(env []string, baseDir string) []string {
	out := make([]string, 0, len(env)+1)
	prefix := PlanBaseDirEnv + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			continue
		}
		out = append(out, e)
	}
	return append(out, prefix+baseDir)
}
