package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinybarreto/extrato/internal/model"
)

func testBatch() model.ImportBatch {
	return model.ImportBatch{
		UserID:       "user-1",
		SourceFormat: model.FormatRevolut,
		FileName:     "revolut-setembro.csv",
		FileKind:     model.FileKindCSV,
		TotalCount:   12,
	}
}

func TestCreateImportBatchDefaults(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	batch := testBatch()
	require.NoError(t, store.CreateImportBatch(ctx, &batch))

	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, model.BatchProcessing, batch.Status)
	assert.False(t, batch.CreatedAt.IsZero())
}

func TestFinalizeImportBatch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	batch := testBatch()
	require.NoError(t, store.CreateImportBatch(ctx, &batch))

	batch.ImportedCount = 9
	batch.DuplicateCount = 2
	batch.ErrorCount = 1
	require.NoError(t, store.FinalizeImportBatch(ctx, &batch))
	assert.Equal(t, model.BatchCompleted, batch.Status)

	batches, err := store.ListImportBatches(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, model.BatchCompleted, batches[0].Status)
	assert.Equal(t, 9, batches[0].ImportedCount)
	assert.Equal(t, 2, batches[0].DuplicateCount)
	assert.Equal(t, 1, batches[0].ErrorCount)
	assert.False(t, batches[0].CompletedAt.IsZero())
}

func TestFinalizeImportBatchUnknownID(t *testing.T) {
	store := createTestStorage(t)

	batch := testBatch()
	batch.ID = "no-such-batch"
	assert.Error(t, store.FinalizeImportBatch(context.Background(), &batch))
}

func TestListImportBatchesOrderAndLimit(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for i, name := range []string{"old.csv", "mid.csv", "new.csv"} {
		batch := testBatch()
		batch.FileName = name
		batch.CreatedAt = time.Date(2025, 9, i+1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.CreateImportBatch(ctx, &batch))
	}

	batches, err := store.ListImportBatches(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "new.csv", batches[0].FileName)
	assert.Equal(t, "mid.csv", batches[1].FileName)
	assert.True(t, batches[0].CompletedAt.IsZero(), "unfinished batches carry no completion time")
}

func TestListImportBatchesScopedToUser(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	batch := testBatch()
	require.NoError(t, store.CreateImportBatch(ctx, &batch))

	batches, err := store.ListImportBatches(ctx, "user-2", 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}
