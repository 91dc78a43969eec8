// Package logging implements the Logging Pipeline: three logical
// streams (script, work, decision), each backed by zap for its
// leveling/field API while the actual sink writes through the Artifact
// Store's append-only, lock-protected files so the two file layouts (one
// line per zap.Logger call, one destination per plan-or-global) agree.
//
// Adapted here with a custom zapcore.Core instead
// of zap's stock encoders+sinks, because the on-disk layout pins an exact line
// format ("[ISO-8601-Z] [LEVEL] [CATEGORY] (caller) message") that must
// survive regardless of which zap encoder config a caller might otherwise
// reach for.
package logging

import (
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink persists one rendered log entry for a given stream and plan. An
// empty planID routes to the daily global log.
type Sink func(planID, stream string, entry model.LogEntry) error

// Pipeline exposes one *zap.Logger per stream, all backed by the same
// Sink.
type Pipeline struct {
	Script   *zap.Logger
	Work     *zap.Logger
	Decision *zap.Logger
}

// New constructs a Pipeline whose three streams all write through sink,
// scoped to planID (empty for plan-independent logging, e.g. CLI startup
// before a plan exists).
func New(sink Sink, planID string) *Pipeline {
	return &Pipeline{
		Script:   zap.New(newStoreCore(sink, planID, "script")),
		Work:     zap.New(newStoreCore(sink, planID, "work")),
		Decision: zap.New(newStoreCore(sink, planID, "decision")),
	}
}

// storeCore is a zapcore.Core that renders each entry through the shared
// Sink instead of a zapcore.WriteSyncer, so the Artifact Store's
// lock-protected append stays the single write path for every log line.
type storeCore struct {
	sink   Sink
	planID string
	stream string
	level  zapcore.LevelEnabler
	fields []zapcore.Field
}

func newStoreCore(sink Sink, planID, stream string) *storeCore {
	return &storeCore{sink: sink, planID: planID, stream: stream, level: zapcore.DebugLevel}
}

func (c *storeCore) Enabled(lvl zapcore.Level) bool { return c.level.Enabled(lvl) }

func (c *storeCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *storeCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *storeCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	category := categoryFromFields(append(c.fields, fields...))
	logEntry := model.LogEntry{
		Timestamp: timestampOrNow(entry.Time),
		Level:     levelFromZap(entry.Level),
		Category:  category,
		Caller:    entry.Caller.TrimmedPath(),
		Message:   entry.Message,
	}
	return c.sink(c.planID, c.stream, logEntry)
}

func (c *storeCore) Sync() error { return nil }

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func levelFromZap(lvl zapcore.Level) model.LogLevel {
	switch {
	case lvl >= zapcore.ErrorLevel:
		return model.LogLevelError
	case lvl >= zapcore.WarnLevel:
		return model.LogLevelWarn
	case lvl >= zapcore.InfoLevel:
		return model.LogLevelInfo
	default:
		return model.LogLevelDebug
	}
}

// Category is the zap field key a caller sets (via zap.String("category",
// ...)) to select one of model.LogCategory's values; entries without one
// default to CategoryDispatch.
const Category = "category"

func categoryFromFields(fields []zapcore.Field) model.LogCategory {
	for _, f := range fields {
		if f.Key == Category && f.Type == zapcore.StringType {
			return model.LogCategory(f.String)
		}
	}
	return model.CategoryDispatch
}
