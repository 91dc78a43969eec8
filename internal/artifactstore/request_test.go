package artifactstore

import (
	"testing"
	"time"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	store := NewStore(WithBaseDir(t.TempDir()))
	_, err := store.CreatePlan("req-plan", time.Now())
	require.NoError(t, err)

	req := &model.Request{Original: "Add retry logic to the billing client"}
	require.NoError(t, store.WriteRequest("req-plan", req))

	loaded, err := store.ReadRequest("req-plan")
	require.NoError(t, err)
	assert.Equal(t, req.Original, loaded.Original)
	assert.Empty(t, loaded.Clarified)

	req.Clarified = "Add a bounded retry wrapper around the billing HTTP client"
	require.NoError(t, store.WriteRequest("req-plan", req))

	loaded, err = store.ReadRequest("req-plan")
	require.NoError(t, err)
	assert.Equal(t, req.Clarified, loaded.Clarified)
}
