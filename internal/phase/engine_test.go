package phase

import (
	"context"
	"testing"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
	"github.com/cuioss/plan-marshall/internal/qgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	name        model.PhaseName
	runErr      error
	findings    []model.Finding
	approval    bool
}

func (f *fakeHandler) Name() model.PhaseName { return f.name }
func (f *fakeHandler) Run(_ context.Context, _ *Context) error { return f.runErr }
func (f *fakeHandler) Validate(_ *Context) []model.Finding { return f.findings }
func (f *fakeHandler) RequiresApproval() bool { return f.approval }

func newPlanContext(now time.Time) *Context {
	plan := model.NewPlan("demo", now)
	return &Context{Plan: plan, Now: now}
}

func TestAdvanceMovesPendingToDone(t *testing.T) {
	now := time.Now()
	pc := newPlanContext(now)
	handler := &fakeHandler{name: model.PhaseInit}

	result, err := Advance(context.Background(), handler, pc, false)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseStatusDone, result.Status)
	assert.Equal(t, model.PhaseRefine, pc.Plan.CurrentPhase)
}

func TestAdvanceFailsPhaseOnRunError(t *testing.T) {
	now := time.Now()
	pc := newPlanContext(now)
	handler := &fakeHandler{name: model.PhaseInit, runErr: assertErr("boom")}

	_, err := Advance(context.Background(), handler, pc, false)
	require.Error(t, err)
	ps := pc.Plan.PhaseState(model.PhaseInit)
	assert.Equal(t, model.PhaseStatusFailed, ps.Status)
	assert.Contains(t, ps.FailureReason, "boom")
}

func TestAdvanceStaysInProgressAwaitingApproval(t *testing.T) {
	now := time.Now()
	pc := newPlanContext(now)
	pc.Plan.PhaseState(model.PhaseInit).Status = model.PhaseStatusDone
	pc.Plan.PhaseState(model.PhaseRefine).Status = model.PhaseStatusDone
	handler := &fakeHandler{name: model.PhaseOutline, approval: true}

	result, err := Advance(context.Background(), handler, pc, false)
	require.NoError(t, err)
	assert.True(t, result.AwaitingApproval)
	assert.Equal(t, model.PhaseStatusInProgress, pc.Plan.PhaseState(model.PhaseOutline).Status)
}

func TestAdvanceCompletesOutlineWhenApproved(t *testing.T) {
	now := time.Now()
	pc := newPlanContext(now)
	handler := &fakeHandler{name: model.PhaseOutline, approval: true}

	result, err := Advance(context.Background(), handler, pc, true)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseStatusDone, result.Status)
}

func TestAdvanceIncrementsReentryOnFindings(t *testing.T) {
	now := time.Now()
	pc := newPlanContext(now)
	handler := &fakeHandler{name: model.PhaseInit, findings: []model.Finding{{Title: "issue"}}}

	result, err := Advance(context.Background(), handler, pc, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReentryCount)
	assert.Equal(t, model.PhaseStatusInProgress, pc.Plan.PhaseState(model.PhaseInit).Status)
}

func TestAdvanceExhaustsReentryCapAsQGateUnresolved(t *testing.T) {
	now := time.Now()
	pc := newPlanContext(now)
	pc.Plan.PhaseState(model.PhaseInit).ReentryCount = qgate.MaxReentries
	handler := &fakeHandler{name: model.PhaseInit, findings: []model.Finding{{Title: "still broken"}}}

	_, err := Advance(context.Background(), handler, pc, false)
	require.Error(t, err)
	assert.True(t, planerrors.Is(err, planerrors.KindQGateUnresolved))
}

func TestAdvanceRejectsSecondInProgressPhase(t *testing.T) {
	now := time.Now()
	pc := newPlanContext(now)
	pc.Plan.PhaseState(model.PhaseInit).Status = model.PhaseStatusInProgress
	handler := &fakeHandler{name: model.PhaseRefine}

	_, err := Advance(context.Background(), handler, pc, false)
	require.Error(t, err)
	assert.True(t, planerrors.Is(err, planerrors.KindInvariantViolation))
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

func assertErr(msg string) error { return simpleError(msg) }
