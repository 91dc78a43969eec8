package qgate

import (
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// Outcome is the result of evaluating a phase's Q-Gate.
type Outcome struct {
	// Passed is true when no pending findings remain after this run.
	Passed bool

	// NewFindings are the findings this run's checks produced. Evaluate does
	// not persist them; the caller appends them through the Artifact Store,
	// whose AppendFinding is idempotent per hash.
	NewFindings []model.Finding

	// ReentryCount is the phase's re-entry counter after this evaluation.
	ReentryCount int
}

// Evaluate runs the standard checks for phase, folds new findings into the
// phase's PhaseState re-entry bookkeeping, and reports whether the phase
// may proceed. A phase whose re-entry cap (MaxReentries) is exhausted with
// findings still pending returns KindQGateUnresolved.
func Evaluate(phaseState *model.PhaseState, outline *model.SolutionOutline, refs *model.References, assessments []model.Assessment, now time.Time) (Outcome, error) {
	findings := Run(outline, refs, assessments, phaseState.Name, now)

	if len(findings) == 0 {
		return Outcome{Passed: true, ReentryCount: phaseState.ReentryCount}, nil
	}

	if phaseState.ReentryCount >= MaxReentries {
		return Outcome{Passed: false, NewFindings: findings, ReentryCount: phaseState.ReentryCount},
			planerrors.New(planerrors.KindQGateUnresolved, "q-gate re-entry cap exhausted with findings still pending")
	}

	phaseState.ReentryCount++
	phaseState.UpdatedAt = now
	return Outcome{Passed: false, NewFindings: findings, ReentryCount: phaseState.ReentryCount}, nil
}
