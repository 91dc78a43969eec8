// Package executor implements the Command Executor: a two-layer-
// deadline wrapper around external build/test commands that returns a
// structured result instead of ever raising, and pluggable output parsers
// keyed by build-system identifier.
//
// Follows a findEpic-style lookup that pairs
// context.WithTimeout with exec.CommandContext and distinguishes a
// deadline-exceeded error from any other command failure.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// Status is the outcome of a Run call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// OutputMode controls how Result.Rendered is assembled from parsed errors.
type OutputMode string

const (
	// ModeActionable includes errors and warnings not on the
	// acceptable-warnings allow-list.
	ModeActionable OutputMode = "actionable"

	// ModeStructured includes all errors and warnings, annotating
	// accepted warnings with an "[accepted]" marker.
	ModeStructured OutputMode = "structured"

	// ModeErrors includes only errors, compactly.
	ModeErrors OutputMode = "errors"
)

// ErrorCategory classifies one parsed error/warning line.
type ErrorCategory string

const (
	CategoryCompilation ErrorCategory = "compilation_error"
	CategoryTestFailure ErrorCategory = "test_failure"
	CategoryLint        ErrorCategory = "lint_error"
	CategoryDependency  ErrorCategory = "dependency_error"
	CategoryType        ErrorCategory = "type_error"
	CategoryOther       ErrorCategory = "other"
)

// ParsedError is one structured finding extracted from a command's output.
type ParsedError struct {
	File     string        `json:"file,omitempty"`
	Line     int           `json:"line,omitempty"`
	Message  string        `json:"message"`
	Category ErrorCategory `json:"category"`
	Warning  bool          `json:"warning,omitempty"`
	Accepted bool          `json:"accepted,omitempty"`
}

// Parser extracts ParsedErrors from a command's captured stdout+stderr.
// Implementations are registered per build-system identifier (e.g. "go",
// "npm", "maven") and consumed by Run via the Parsers registry.
type Parser interface {
	Parse(output string) []ParsedError
}

// Request describes one command invocation.
type Request struct {
	Command        string
	Args           []string
	Env            []string
	WorkingDir     string
	TimeoutSeconds int
	Mode           OutputMode

	// BuildSystem selects the Parser to run over captured output, if any
	// is registered.
	BuildSystem string

	// AcceptableWarnings are substrings this machine has chosen to treat
	// as non-blocking.
	AcceptableWarnings []string

	// LogDir is where the full captured output is written; Result's
	// LogFilePath points inside it.
	LogDir string
}

// Result is the structured outcome every Run call returns; the Command
// Executor never raises.
type Result struct {
	Status          Status
	ExitCode        int
	DurationSeconds float64
	LogFilePath     string
	ParsedErrors    []ParsedError
	Rendered        string
}

// slackSeconds is the fixed outer-deadline slack added atop the inner
// (learned) timeout, guaranteeing outer always exceeds inner.
const slackSeconds = 30

// Executor runs external commands under the two-layer timeout model and
// renders their output through a registered Parser.
type Executor struct {
	Parsers map[string]Parser
}

// New constructs an Executor with the given build-system parser registry.
func New(parsers map[string]Parser) *Executor {
	if parsers == nil {
		parsers = map[string]Parser{}
	}
	return &Executor{Parsers: parsers}
}

// Run executes req.Command under an inner deadline of req.TimeoutSeconds
// and an outer deadline of inner+slackSeconds (the SIGKILL safeguard),
// capturing combined stdout/stderr and classifying the result.
func (e *Executor) Run(ctx context.Context, req Request) (Result, error) {
	inner := time.Duration(req.TimeoutSeconds) * time.Second
	outer := inner + slackSeconds*time.Second

	outerCtx, outerCancel := context.WithTimeout(ctx, outer)
	defer outerCancel()
	innerCtx, innerCancel := context.WithTimeout(outerCtx, inner)
	defer innerCancel()

	cmd := exec.CommandContext(innerCtx, req.Command, req.Args...)
	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}
	if len(req.Env) > 0 {
		cmd.Env = req.Env
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start).Seconds()

	result := Result{
		DurationSeconds: duration,
	}

	if logPath, err := writeExecutionLog(req.LogDir, req.Command, buf.String()); err == nil {
		result.LogFilePath = logPath
	}

	switch {
	case innerCtx.Err() == context.DeadlineExceeded:
		result.Status = StatusTimeout
		result.ExitCode = 124
	case runErr != nil:
		result.Status = StatusError
		result.ExitCode = exitCodeOf(runErr)
	default:
		result.Status = StatusSuccess
		result.ExitCode = 0
	}

	if parser, ok := e.Parsers[req.BuildSystem]; ok {
		result.ParsedErrors = parser.Parse(buf.String())
	}
	markAccepted(result.ParsedErrors, req.AcceptableWarnings)
	result.Rendered = render(result.ParsedErrors, req.Mode)

	return result, nil
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return 1
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	*target = ee
	return true
}

func markAccepted(errs []ParsedError, acceptableWarnings []string) {
	for i := range errs {
		if !errs[i].Warning {
			continue
		}
		for _, allow := range acceptableWarnings {
			if allow != "" && containsSubstring(errs[i].Message, allow) {
				errs[i].Accepted = true
				break
			}
		}
	}
}

func containsSubstring(haystack, needle string) bool {
	return len(needle) > 0 && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// render assembles the display form of parsed errors per mode.
func render(errs []ParsedError, mode OutputMode) string {
	var b bytes.Buffer
	for _, e := range errs {
		switch mode {
		case ModeActionable:
			if e.Warning && e.Accepted {
				continue
			}
			fmt.Fprintf(&b, "%s:%d: %s\n", e.File, e.Line, e.Message)
		case ModeErrors:
			if e.Warning {
				continue
			}
			fmt.Fprintf(&b, "%s:%d: %s\n", e.File, e.Line, e.Message)
		default: // ModeStructured
			marker := ""
			if e.Warning && e.Accepted {
				marker = " [accepted]"
			}
			fmt.Fprintf(&b, "%s:%d: %s%s\n", e.File, e.Line, e.Message, marker)
		}
	}
	return b.String()
}

// writeExecutionLog persists full captured output under logDir and returns
// its path, so Result.LogFilePath always points at complete diagnostic
// context even when Rendered is truncated by mode.
func writeExecutionLog(logDir, command, output string) (string, error) {
	if logDir == "" {
		return "", planerrors.New(planerrors.KindInvalidInput, "log directory not set")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", planerrors.Wrap(planerrors.KindInvalidInput, "create log directory", err)
	}
	name := fmt.Sprintf("%d-%s.log", time.Now().UnixNano(), sanitizeForFilename(command))
	path := filepath.Join(logDir, name)
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return "", planerrors.Wrap(planerrors.KindInvalidInput, "write execution log", err)
	}
	return path, nil
}

func sanitizeForFilename(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			out = append(out, c)
		} else {
			out = append(out, '-')
		}
	}
	return string(out)
}
