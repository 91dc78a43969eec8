// Package timeoutstore implements the Adaptive Timeout Store: a
// learning mechanism that biases the timeout the Command Executor hands a
// given command key toward its historical worst case, so that a single
// slow run raises the ceiling quickly while sporadic fast runs never shrink
// it. Persistence is delegated to internal/artifactstore's run-configuration
// read-modify-write, following a toolchain precedence
// resolution style: a small set of pure functions over loaded config state.
package timeoutstore

import (
	"math"

	"github.com/cuioss/plan-marshall/internal/model"
)

const (
	// SafetyMargin inflates a persisted timeout before handing it to a
	// caller, so that the learned value is a ceiling, not an average.
	SafetyMargin = 1.25

	// HigherWeight biases Set toward the larger of the old and observed
	// durations.
	HigherWeight = 0.80

	// MinFloor is the minimum timeout ever returned, regardless of
	// persisted or default values.
	MinFloor = 120
)

// Get returns the timeout to use for commandKey: max(MIN_FLOOR,
// persisted*SAFETY_MARGIN) if a persisted value exists, else
// max(MIN_FLOOR, defaultSeconds).
func Get(timings map[string]model.CommandTiming, commandKey string, defaultSeconds float64) int {
	if t, ok := timings[commandKey]; ok {
		return maxInt(MinFloor, int(math.Round(t.TimeoutSeconds*SafetyMargin)))
	}
	return maxInt(MinFloor, int(math.Round(defaultSeconds)))
}

// Set folds an observed duration into commandKey's persisted timeout and
// returns the new value to store. With no existing value, observed is
// stored as-is. Otherwise the new value is
// round(HIGHER_WEIGHT*max(old,observed) + (1-HIGHER_WEIGHT)*min(old,observed)),
// satisfying min(old,observed) <= result <= max(old,observed).
func Set(timings map[string]model.CommandTiming, commandKey string, observedSeconds float64) float64 {
	existing, ok := timings[commandKey]
	if !ok {
		return observedSeconds
	}
	old := existing.TimeoutSeconds
	hi := math.Max(old, observedSeconds)
	lo := math.Min(old, observedSeconds)
	return math.Round(HigherWeight*hi + (1-HigherWeight)*lo)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
