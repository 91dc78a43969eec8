package artifactstore

import (
	"testing"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutline() *model.SolutionOutline {
	return &model.SolutionOutline{
		PlanID:        "add-retry-logic",
		Compatibility: model.CompatibilitySmartAndAsk,
		Deliverables: []model.Deliverable{
			{
				Number:        1,
				Title:         "Add retry wrapper",
				ChangeType:    model.ChangeFeature,
				ExecutionMode: model.ExecutionAutomated,
				Domain:        "billing",
				Module:        "billing-svc",
				Profiles:      []model.Profile{model.ProfileImplementation, model.ProfileModuleTesting},
				AffectedFiles: []string{"billing/retry.go", "billing/retry_test.go"},
				ChangePerFile: map[string]string{"billing/retry.go": "new wrapper"},
				Verification:  model.Verification{Command: "go test ./billing/...", Criteria: "all green"},
				SuccessCriteria: []string{"retries bounded", "backoff applied"},
			},
			{
				Number:        2,
				Title:         "Wire retry into client",
				ChangeType:    model.ChangeEnhancement,
				ExecutionMode: model.ExecutionAutomated,
				Domain:        "billing",
				Module:        "billing-svc",
				Depends:       []int{1},
				Profiles:      []model.Profile{model.ProfileImplementation},
				AffectedFiles: []string{"billing/client.go"},
			},
		},
	}
}

func TestOutlineRoundTrip(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	_, err := store.CreatePlan("add-retry-logic", time.Now())
	require.NoError(t, err)

	outline := sampleOutline()
	require.NoError(t, store.WriteOutline("add-retry-logic", outline))

	loaded, err := store.ReadOutline("add-retry-logic")
	require.NoError(t, err)
	assert.Equal(t, outline.PlanID, loaded.PlanID)
	assert.Equal(t, outline.Compatibility, loaded.Compatibility)
	require.Len(t, loaded.Deliverables, 2)
	assert.Equal(t, "Add retry wrapper", loaded.Deliverables[0].Title)
	assert.Equal(t, []int{1}, loaded.Deliverables[1].Depends)
	assert.ElementsMatch(t, outline.UnionAffectedFiles(), loaded.UnionAffectedFiles())
}

func TestWriteOutlineRejectsWildcardAffectedFile(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	_, err := store.CreatePlan("bad-outline", time.Now())
	require.NoError(t, err)

	outline := sampleOutline()
	outline.Deliverables[0].AffectedFiles = []string{"billing/*.go"}

	err = store.WriteOutline("bad-outline", outline)
	require.Error(t, err)
	assert.True(t, planerrors.Is(err, planerrors.KindInvariantViolation))
}

func TestWriteOutlineRejectsDuplicateNumbers(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	_, err := store.CreatePlan("dup-numbers", time.Now())
	require.NoError(t, err)

	outline := sampleOutline()
	outline.Deliverables[1].Number = 1

	err = store.WriteOutline("dup-numbers", outline)
	require.Error(t, err)
	assert.True(t, planerrors.Is(err, planerrors.KindInvariantViolation))
}
