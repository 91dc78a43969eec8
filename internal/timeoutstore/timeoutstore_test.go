package timeoutstore

import (
	"testing"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestGetUsesDefaultWhenNoPersistedValue(t *testing.T) {
	timings := map[string]model.CommandTiming{}
	assert.Equal(t, MinFloor, Get(timings, "go:test", 10))
	assert.Equal(t, 200, Get(timings, "go:test", 200))
}

func TestGetAppliesSafetyMarginToPersistedValue(t *testing.T) {
	timings := map[string]model.CommandTiming{
		"go:test": {TimeoutSeconds: 200},
	}
	assert.Equal(t, 250, Get(timings, "go:test", 10))
}

func TestSetStoresObservedWhenNoExistingValue(t *testing.T) {
	timings := map[string]model.CommandTiming{}
	assert.Equal(t, float64(42), Set(timings, "go:build", 42))
}

func TestSetBiasesTowardHigherOfOldAndObserved(t *testing.T) {
	timings := map[string]model.CommandTiming{
		"go:test": {TimeoutSeconds: 100},
	}
	// A slow observed run (300) should pull the stored value up sharply.
	got := Set(timings, "go:test", 300)
	assert.InDelta(t, 0.8*300+0.2*100, got, 0.5)

	// A fast observed run (10) should not collapse the ceiling.
	got = Set(timings, "go:test", 10)
	assert.GreaterOrEqual(t, got, 10.0)
	assert.LessOrEqual(t, got, 100.0)
}
