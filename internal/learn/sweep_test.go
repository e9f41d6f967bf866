package learn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinybarreto/extrato/internal/model"
	"github.com/vinybarreto/extrato/internal/testutil"
)

func TestSweepAppliesHighConfidencePatterns(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage)

	transport := db.CategoryByName(ctx, "user-1", "Transporte")
	food := db.CategoryByName(ctx, "user-1", "Alimentação")

	uncategorized := db.SeedTransaction(ctx, model.Transaction{
		UserID: "user-1", Date: "2025-08-10", Description: "Uber viagem aeroporto",
		Merchant: "Uber", Amount: 18.40, Type: model.TypeExpense,
	})
	alreadyCategorized := db.SeedTransaction(ctx, model.Transaction{
		UserID: "user-1", Date: "2025-08-11", Description: "Uber viagem centro",
		Merchant: "Uber", Amount: 7.20, Type: model.TypeExpense, CategoryID: food.ID,
	})

	require.NoError(t, db.Storage.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		UserID:     "user-1",
		Merchant:   "uber",
		CategoryID: transport.ID,
		Confidence: 1.0,
	}))

	result, err := learner.Sweep(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.PatternsApplied)
	assert.Equal(t, int64(1), result.RowsUpdated)
	assert.Zero(t, result.Errors)

	updated, err := db.Storage.GetTransactionByID(ctx, "user-1", uncategorized.ID)
	require.NoError(t, err)
	assert.Equal(t, transport.ID, updated.CategoryID)

	untouched, err := db.Storage.GetTransactionByID(ctx, "user-1", alreadyCategorized.ID)
	require.NoError(t, err)
	assert.Equal(t, food.ID, untouched.CategoryID, "a sweep never overrides an existing category")

	patterns, err := db.Storage.GetLearnedPatterns(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 1, patterns[0].TimesApplied)
}

func TestSweepSkipsLowConfidencePatterns(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	learner := NewLearner(db.Storage)

	transport := db.CategoryByName(ctx, "user-1", "Transporte")

	txn := db.SeedTransaction(ctx, model.Transaction{
		UserID: "user-1", Date: "2025-08-10", Description: "Bolt viagem",
		Merchant: "Bolt", Amount: 5.00, Type: model.TypeExpense,
	})

	require.NoError(t, db.Storage.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		UserID:     "user-1",
		Merchant:   "bolt",
		CategoryID: transport.ID,
		Confidence: 0.5,
	}))

	result, err := learner.Sweep(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, result.PatternsApplied)
	assert.Zero(t, result.RowsUpdated)

	unchanged, err := db.Storage.GetTransactionByID(ctx, "user-1", txn.ID)
	require.NoError(t, err)
	assert.Empty(t, unchanged.CategoryID)
}
