package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/testutil"
)

func seededStore() *testutil.FakeStore {
	store := testutil.NewFakeStore()
	store.Orders = []*models.LocalOrder{
		{ID: 1, MarketplaceOrderID: "N-1", IsMarketplaceOrder: true},
		{ID: 2, MarketplaceOrderID: "N-2", IsMarketplaceOrder: false}, // defective
		{ID: 3}, // no linkage at all, out of scope
		{ID: 4, MarketplaceOrderID: "N-4", IsMarketplaceOrder: false}, // defective
	}
	return store
}

func TestDryRun_FindsWithoutWriting(t *testing.T) {
	store := seededStore()
	job := NewJob(store, testutil.NewTestLogger())

	report, err := job.DryRun(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Applied)
	require.Len(t, report.Findings, 2)
	assert.Equal(t, int64(2), report.Findings[0].OrderID)
	assert.Equal(t, int64(4), report.Findings[1].OrderID)

	// Nothing was repaired.
	assert.False(t, store.Orders[1].IsMarketplaceOrder)
	assert.False(t, store.Orders[3].IsMarketplaceOrder)
	assert.Empty(t, store.Notes)
}

func TestApply_RepairsAndDocuments(t *testing.T) {
	store := seededStore()
	job := NewJob(store, testutil.NewTestLogger())

	report, err := job.Apply(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Applied)
	require.Len(t, report.Findings, 2)

	repaired := store.Orders[1]
	assert.True(t, repaired.IsMarketplaceOrder)
	// The dirty bit is initialized clean, not left nil: a repaired order must
	// not immediately flood the status export.
	require.NotNil(t, repaired.NeedsStatusExport)
	assert.False(t, *repaired.NeedsStatusExport)

	require.Len(t, store.Notes[2], 1)
	assert.Contains(t, store.Notes[2][0], "restored marketplace ownership for order N-2")

	// Healthy and unlinked orders are untouched.
	assert.Empty(t, store.Notes[1])
	assert.Empty(t, store.Notes[3])
}

func TestApply_PreservesExistingDirtyBit(t *testing.T) {
	store := testutil.NewFakeStore()
	defective := &models.LocalOrder{ID: 2, MarketplaceOrderID: "N-2"}
	defective.SetNeedsStatusExport(true)
	store.Orders = []*models.LocalOrder{defective}

	_, err := NewJob(store, testutil.NewTestLogger()).Apply(context.Background())
	require.NoError(t, err)

	assert.True(t, *defective.NeedsStatusExport)
}

func TestApply_IsIdempotent(t *testing.T) {
	store := seededStore()
	job := NewJob(store, testutil.NewTestLogger())

	_, err := job.Apply(context.Background())
	require.NoError(t, err)
	second, err := job.Apply(context.Background())
	require.NoError(t, err)

	assert.Empty(t, second.Findings)
	assert.Len(t, store.Notes[2], 1)
}
