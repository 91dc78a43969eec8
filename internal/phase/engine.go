// Package phase implements the Phase State Machine: the driver that
// advances a Plan's seven fixed phases one at a time, running each phase's
// handler, folding its Q-Gate findings into the bounded re-entry loop
// (internal/qgate), and enforcing the single mandatory human-approval gate
// at the outline phase.
//
// Follows a phased-runner shape: one phase-loop iteration per Advance call,
// distinguishing a gate-retry loop from a fatal phase failure. Loading,
// persisting and logging are left to the caller.
package phase

import (
	"context"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
	"github.com/cuioss/plan-marshall/internal/qgate"
)

// Context carries the artifacts a Handler needs to do a phase's work and
// to validate it, assembled by the caller of Advance from the Artifact Store
// before each call so handlers never touch storage directly.
type Context struct {
	Plan        *model.Plan
	Request     *model.Request
	References  *model.References
	Outline     *model.SolutionOutline
	Assessments []model.Assessment
	Now         time.Time
}

// Handler implements one phase's body and its Q-Gate validation.
type Handler interface {
	// Name identifies which of the seven fixed phases this handler drives.
	Name() model.PhaseName

	// Run performs the phase's work, mutating pc's artifacts in place. The
	// caller of Advance persists the changed artifacts via Store after Run
	// returns; Run itself never touches storage.
	Run(ctx context.Context, pc *Context) error

	// Validate runs this phase's Q-Gate checks and returns any findings.
	// A phase with no standard checks (e.g. execute, finalize) returns nil.
	Validate(pc *Context) []model.Finding

	// RequiresApproval reports whether this phase additionally needs an
	// explicit human approval before it may transition to done — true only
	// for the outline phase.
	RequiresApproval() bool
}

// Result reports what Advance did to the phase.
type Result struct {
	Status       model.PhaseStatus
	ReentryCount int
	Findings     []model.Finding
	AwaitingApproval bool
}

// Advance runs one phase-loop iteration for handler against pc.Plan's
// matching PhaseState. The caller is responsible for loading pc from the
// Artifact Store before the call and persisting pc.Plan/pc.Outline/etc.
// (whichever the phase writes) after it returns, the same division of
// labor a runSinglePhase step keeps between state mutation and
// savePhasedState.
func Advance(ctx context.Context, handler Handler, pc *Context, approved bool) (Result, error) {
	plan := pc.Plan
	ps := plan.PhaseState(handler.Name())
	if ps == nil {
		return Result{}, planerrors.New(planerrors.KindInvariantViolation, "plan has no state for phase "+string(handler.Name()))
	}

	if inProgress := plan.InProgressPhase(); inProgress != "" && inProgress != handler.Name() {
		return Result{}, planerrors.New(planerrors.KindInvariantViolation,
			"another phase is already in_progress: "+string(inProgress))
	}

	if ps.Status == model.PhaseStatusPending {
		ps.Status = model.PhaseStatusInProgress
		ps.EnteredAt = pc.Now
	}
	ps.UpdatedAt = pc.Now

	if err := handler.Run(ctx, pc); err != nil {
		ps.Status = model.PhaseStatusFailed
		ps.FailureReason = err.Error()
		return Result{Status: ps.Status}, err
	}

	findings := handler.Validate(pc)
	if len(findings) > 0 {
		if ps.ReentryCount >= qgate.MaxReentries {
			ps.Status = model.PhaseStatusFailed
			ps.FailureReason = "q-gate re-entry cap exhausted with findings still pending"
			return Result{Status: ps.Status, Findings: findings, ReentryCount: ps.ReentryCount},
				planerrors.New(planerrors.KindQGateUnresolved, ps.FailureReason)
		}
		ps.ReentryCount++
		return Result{Status: ps.Status, Findings: findings, ReentryCount: ps.ReentryCount}, nil
	}

	if handler.RequiresApproval() && !approved {
		return Result{Status: ps.Status, AwaitingApproval: true}, nil
	}

	ps.Status = model.PhaseStatusDone
	ps.UpdatedAt = pc.Now
	advanceCurrentPhase(plan)

	return Result{Status: ps.Status}, nil
}

// advanceCurrentPhase recomputes Plan.CurrentPhase as the first pending
// phase, or leaves it at the last phase if every phase is done/skipped.
func advanceCurrentPhase(plan *model.Plan) {
	if next := plan.FirstPendingPhase(); next != "" {
		plan.CurrentPhase = next
		return
	}
	if len(plan.Phases) > 0 {
		plan.CurrentPhase = plan.Phases[len(plan.Phases)-1].Name
	}
}
