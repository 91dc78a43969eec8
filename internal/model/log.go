package model

import "time"

// LogLevel mirrors the levels the logging pipeline emits.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogCategory groups log entries by the subsystem that emitted them, the
// second bracketed token in the pipeline's line format.
type LogCategory string

const (
	CategoryPhase     LogCategory = "PHASE"
	CategoryQGate     LogCategory = "QGATE"
	CategoryExecutor  LogCategory = "EXECUTOR"
	CategoryPlanner   LogCategory = "PLANNER"
	CategoryDispatch  LogCategory = "DISPATCH"
	CategoryTimeout   LogCategory = "TIMEOUT"
	CategoryCLI       LogCategory = "CLI"
)

// LogEntry is one line of structured, human-readable output. The
// logging pipeline renders it as
// "[ISO-8601-Z] [LEVEL] [CATEGORY] (caller) message".
type LogEntry struct {
	// Timestamp is when the event occurred, always rendered in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Level is the log severity.
	Level LogLevel `json:"level"`

	// Category identifies the emitting subsystem.
	Category LogCategory `json:"category"`

	// Caller is a short source identifier (e.g. a phase name or command key).
	Caller string `json:"caller,omitempty"`

	// Message is the human-readable text.
	Message string `json:"message"`
}
