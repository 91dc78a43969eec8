package artifactstore

import (
	"fmt"
	"os"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

const globalRetentionDays = 7

// streamFile maps a logging stream name to its on-disk file name, one of the
// three logical streams (script, work, decision).
func streamFile(stream string) string {
	switch stream {
	case "script":
		return scriptLogFile
	case "decision":
		return decisionLogFile
	default:
		return workLogFile
	}
}

// renderLine formats an entry as "[ISO-8601-Z] [LEVEL] [CATEGORY] (caller) message".
func renderLine(e model.LogEntry) string {
	return fmt.Sprintf("[%s] [%s] [%s] (%s) %s",
		e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		e.Level, e.Category, e.Caller, e.Message)
}

// AppendLog writes one rendered line to the given stream. If planID is
// non-empty and the plan directory exists, it is written to the per-plan
// log; otherwise it falls back to the daily global log.
func (s *Store) AppendLog(planID, stream string, e model.LogEntry) error {
	if planID != "" && s.PlanExists(planID) {
		path := s.planLogsDir(planID) + "/" + streamFile(stream)
		return appendLine(path, []byte(renderLine(e)))
	}
	daily := e.Timestamp.UTC().Format("2006-01-02")
	path := s.globalLogsDir() + "/" + daily + ".log"
	return appendLine(path, []byte(renderLine(e)))
}

// LogSink adapts AppendLog to the logging package's Sink signature, so a
// logging.Pipeline can be built directly from a Store.
func (s *Store) LogSink() func(planID, stream string, e model.LogEntry) error {
	return s.AppendLog
}

// ReadLog returns the full contents of a plan's log stream (script, work,
// or decision). An empty or never-written stream returns "".
func (s *Store) ReadLog(planID, stream string) (string, error) {
	path := s.planLogsDir(planID) + "/" + streamFile(stream)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", planerrors.Wrap(planerrors.KindInvariantViolation, "read plan log", err)
	}
	return string(data), nil
}

// CleanupGlobalLogs removes daily global log files older than the retention
// window (default 7 days), the only deletion path the logging pipeline
// exposes.
func (s *Store) CleanupGlobalLogs(now time.Time) (removed []string, err error) {
	dir := s.globalLogsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "list global logs", err)
	}

	cutoff := now.AddDate(0, 0, -globalRetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		day, parseErr := time.Parse("2006-01-02.log", entry.Name())
		if parseErr != nil {
			continue
		}
		if day.Before(cutoff) {
			path := dir + "/" + entry.Name()
			if removeErr := os.Remove(path); removeErr == nil {
				removed = append(removed, path)
			}
		}
	}
	return removed, nil
}
