package artifactstore

import (
	"testing"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFindingIsIdempotentPerHash(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	_, err := store.CreatePlan("qgate-plan", time.Now())
	require.NoError(t, err)

	finding := model.NewFinding(model.PhaseOutline, model.FindingSourceQGate, model.SeverityWarning,
		"asymmetric file sets", "", "references.affected_files diverges from deliverables union", time.Now())

	require.NoError(t, store.AppendFinding("qgate-plan", finding))
	require.NoError(t, store.AppendFinding("qgate-plan", finding))

	findings, err := store.ListFindings("qgate-plan", model.PhaseOutline)
	require.NoError(t, err)
	assert.Len(t, findings, 1)

	count, err := store.PendingFindingCount("qgate-plan", model.PhaseOutline)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolveFindingClearsPendingCount(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	_, err := store.CreatePlan("resolve-plan", time.Now())
	require.NoError(t, err)

	finding := model.NewFinding(model.PhaseOutline, model.FindingSourceQGate, model.SeverityError,
		"missing verification command", "", "", time.Now())
	require.NoError(t, store.AppendFinding("resolve-plan", finding))

	err = store.ResolveFinding("resolve-plan", model.PhaseOutline, finding.HashID,
		model.ResolutionTakenIntoAccount, "added verification command", time.Now())
	require.NoError(t, err)

	count, err := store.PendingFindingCount("resolve-plan", model.PhaseOutline)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
