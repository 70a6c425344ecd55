package synclog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbridge/nalda-sync/internal/models"
)

func entry(t models.RunType, status models.RunStatus, ts time.Time) models.SyncRunResult {
	return models.SyncRunResult{
		ID:        fmt.Sprintf("%s-%s-%d", t, status, ts.Unix()),
		Type:      t,
		Status:    status,
		Timestamp: ts,
	}
}

func TestMemorySink_RetentionCap(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	base := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < MaxEntries+20; i++ {
		require.NoError(t, sink.Append(ctx, entry(models.RunOrderImport, models.RunSuccess, base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := sink.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, MaxEntries)

	// The oldest 20 were pruned: the oldest survivor is entry 20.
	oldest := got[len(got)-1]
	assert.Equal(t, base.Add(20*time.Minute), oldest.Timestamp)
}

func TestMemorySink_ListFiltersAndOrder(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	base := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sink.Append(ctx, entry(models.RunOrderImport, models.RunSuccess, base)))
	require.NoError(t, sink.Append(ctx, entry(models.RunProductExport, models.RunError, base.Add(time.Minute))))
	require.NoError(t, sink.Append(ctx, entry(models.RunOrderImport, models.RunWarning, base.Add(2*time.Minute))))

	got, err := sink.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first.
	assert.Equal(t, models.RunWarning, got[0].Status)
	assert.Equal(t, models.RunSuccess, got[2].Status)

	byType, err := sink.List(ctx, Filter{Type: models.RunOrderImport})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	byStatus, err := sink.List(ctx, Filter{Status: models.RunError})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, models.RunProductExport, byStatus[0].Type)

	limited, err := sink.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, models.RunWarning, limited[0].Status)
}

func TestMemorySink_Clear(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, entry(models.RunOrderImport, models.RunSuccess, time.Now())))
	require.NoError(t, sink.Clear(ctx))

	got, err := sink.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
