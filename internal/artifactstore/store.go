// Package artifactstore is the single source of truth every other
// plan-marshall subsystem reads and writes through. It owns the
// on-disk layout under <base>/plans/<plan_id>/ and <base>/, plus the
// locking, atomicity, and integrity invariants the rest of the system
// depends on.
//
// Uses an atomic-write-then-rename pattern (atomicWrite, appendJSONL),
// ratchet/chain.go (flock-based locked read-modify-write), and
// pool/pool.go (lifecycle directories, candidate-ID validation,
// atomicMove) — generalized from session/candidate storage to the plan
// lifecycle's own entities.
package artifactstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/cuioss/plan-marshall/internal/planerrors"
)

const (
	// DefaultBaseDir is the default root for all plan-marshall state.
	DefaultBaseDir = ".marshall"

	// PlansDir holds one subdirectory per plan.
	PlansDir = "plans"

	// TasksDir is the per-plan task directory.
	TasksDir = "tasks"

	// ArtifactsDir is the per-plan artifacts directory (assessments, etc).
	ArtifactsDir = "artifacts"

	// QGateDir is the per-plan Q-Gate findings directory.
	QGateDir = "qgate"

	// LogsDir is the per-plan (and global) logs directory.
	LogsDir = "logs"

	// TempDir is the global ephemeral scratch directory, always cleaned.
	TempDir = "temp"

	configFile       = "config.toon"
	statusFile       = "status.toon"
	requestFile      = "request.md"
	referencesFile   = "references.toon"
	outlineFile      = "solution_outline.md"
	assessmentsFile  = "assessments.jsonl"
	workLogFile      = "work.log"
	decisionLogFile  = "decision.log"
	scriptLogFile    = "script-execution.log"
	projectConfigFile = "marshal.json"
	runConfigFile    = "run-configuration.json"
)

// planIDPattern enforces stable, kebab-case plan identifiers: lowercase
// letters, digits, hyphens, starting with a letter. The same
// anti-path-traversal discipline as an identifier validator,
// generalized to the character set plan_id derivation actually produces.
var planIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidatePlanID reports whether id is safe to use as a path component and
// matches the plan_id format.
func ValidatePlanID(id string) error {
	if id == "" {
		return planerrors.Wrap(planerrors.KindInvalidInput, "plan_id is empty", nil)
	}
	if len(id) > 128 {
		return planerrors.Wrap(planerrors.KindInvalidInput, "plan_id exceeds 128 characters", nil)
	}
	if !planIDPattern.MatchString(id) {
		return planerrors.Wrap(planerrors.KindInvalidInput, fmt.Sprintf("plan_id %q has invalid characters", id), nil)
	}
	return nil
}

// Store is the filesystem-backed artifact store rooted at BaseDir.
type Store struct {
	// BaseDir is the root directory (e.g. .marshall).
	BaseDir string

	// WarnSink receives a short message when a best-effort write is dropped
	// (e.g. a run-configuration.json lock timeout). Nil means drop silently.
	WarnSink func(message string)

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithBaseDir overrides the default base directory.
func WithBaseDir(dir string) Option {
	return func(s *Store) {
		s.BaseDir = dir
	}
}

// NewStore constructs a Store.
func NewStore(opts ...Option) *Store {
	s := &Store{BaseDir: DefaultBaseDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlanDir returns the root directory for a given plan.
func (s *Store) PlanDir(planID string) string {
	return filepath.Join(s.BaseDir, PlansDir, planID)
}

func (s *Store) tasksDir(planID string) string {
	return filepath.Join(s.PlanDir(planID), TasksDir)
}

func (s *Store) artifactsDir(planID string) string {
	return filepath.Join(s.PlanDir(planID), ArtifactsDir)
}

func (s *Store) qgateDir(planID string) string {
	return filepath.Join(s.PlanDir(planID), QGateDir)
}

func (s *Store) planLogsDir(planID string) string {
	return filepath.Join(s.PlanDir(planID), LogsDir)
}

func (s *Store) globalLogsDir() string {
	return filepath.Join(s.BaseDir, LogsDir)
}

// PlanExists reports whether a plan directory has already been created.
func (s *Store) PlanExists(planID string) bool {
	info, err := os.Stat(s.PlanDir(planID))
	return err == nil && info.IsDir()
}

// initPlanDirs creates the fixed subdirectory layout for a new plan.
func (s *Store) initPlanDirs(planID string) error {
	dirs := []string{
		s.PlanDir(planID),
		s.tasksDir(planID),
		s.artifactsDir(planID),
		s.qgateDir(planID),
		s.planLogsDir(planID),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return planerrors.Wrap(planerrors.KindInvariantViolation, fmt.Sprintf("create directory %s", dir), err)
		}
	}
	return nil
}

// atomicWriteFile writes data to path via a temp file in the same directory
// followed by Sync, Close, Rename — never leaves a torn write visible.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "create parent directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "create temp file", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return planerrors.Wrap(planerrors.KindInvariantViolation, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return planerrors.Wrap(planerrors.KindInvariantViolation, "sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "rename to final path", err)
	}

	success = true
	return nil
}

// appendLine appends a single line (no embedded newline required) to path,
// creating it if needed, under an exclusive flock so concurrent appenders
// never interleave partial writes.
func appendLine(path string, line []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "create parent directory", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "open append file", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return planerrors.Wrap(planerrors.KindLockTimeout, "lock append file", err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "write append line", err)
	}
	return f.Sync()
}

// withLockedFile opens path with the given flags under an exclusive flock
// for the duration of fn — the same lock-then-defer-unlock pattern,
// generalized to any on-disk entity this store manages.
func withLockedFile(path string, flags int, fn func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "create parent directory", err)
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "open locked file", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return planerrors.Wrap(planerrors.KindLockTimeout, "lock file", err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()

	return fn(f)
}

// lockPollInterval is how often withLockedFileTimeout retries a
// non-blocking flock attempt while waiting out its deadline.
const lockPollInterval = 20 * time.Millisecond

// withLockedFileTimeout behaves like withLockedFile but gives up after
// timeout instead of blocking indefinitely, the "WARN-and-drop" contract
// run-configuration.json updates require since that file is never
// source-controlled and losing one update is preferable to stalling the
// caller.
func withLockedFileTimeout(path string, flags int, timeout time.Duration, fn func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "create parent directory", err)
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "open locked file", err)
	}
	defer func() {
		_ = f.Close()
	}()

	backoff, err := retry.NewConstant(lockPollInterval)
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "build lock retry backoff", err)
	}
	backoff = retry.WithMaxDuration(timeout, backoff)

	ctx := context.Background()
	lockErr := retry.Do(ctx, backoff, func(context.Context) error {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return nil
		}
		if err == syscall.EWOULDBLOCK {
			return retry.RetryableError(err)
		}
		return err
	})
	if lockErr != nil {
		return planerrors.Wrap(planerrors.KindLockTimeout, "lock file timed out", lockErr)
	}

	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()

	return fn(f)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
