package logging

import (
	"testing"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPipelineRoutesToSinkWithCategory(t *testing.T) {
	var captured []model.LogEntry
	var streams []string
	sink := func(planID, stream string, entry model.LogEntry) error {
		captured = append(captured, entry)
		streams = append(streams, stream)
		return nil
	}

	p := New(sink, "demo-plan")
	p.Work.Info("task 3 started", zap.String(Category, string(model.CategoryExecutor)))

	require.Len(t, captured, 1)
	assert.Equal(t, "work", streams[0])
	assert.Equal(t, model.CategoryExecutor, captured[0].Category)
	assert.Equal(t, model.LogLevelInfo, captured[0].Level)
	assert.Equal(t, "task 3 started", captured[0].Message)
}

func TestPipelineDefaultsCategoryWhenUnset(t *testing.T) {
	var captured model.LogEntry
	sink := func(planID, stream string, entry model.LogEntry) error {
		captured = entry
		return nil
	}
	p := New(sink, "")
	p.Decision.Warn("no category given")
	assert.Equal(t, model.CategoryDispatch, captured.Category)
	assert.Equal(t, model.LogLevelWarn, captured.Level)
}

func TestPipelineErrorLevelMapping(t *testing.T) {
	var captured model.LogEntry
	sink := func(planID, stream string, entry model.LogEntry) error {
		captured = entry
		return nil
	}
	p := New(sink, "plan-x")
	p.Script.Error("command failed", zap.String(Category, string(model.CategoryExecutor)))
	assert.Equal(t, model.LogLevelError, captured.Level)
	assert.WithinDuration(t, time.Now(), captured.Timestamp, 5*time.Second)
}
