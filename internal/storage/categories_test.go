package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

func TestGetCategoriesIncludesSeededDefaults(t *testing.T) {
	store := createTestStorage(t)

	categories, err := store.GetCategories(context.Background(), "user-1")
	require.NoError(t, err)

	names := make(map[string]model.CategoryType, len(categories))
	for _, cat := range categories {
		names[cat.Name] = cat.Type
	}
	assert.Equal(t, model.CategoryTypeExpense, names["Alimentação"])
	assert.Equal(t, model.CategoryTypeExpense, names["Transporte"])
	assert.Equal(t, model.CategoryTypeIncome, names["Salário"])
	assert.Equal(t, model.CategoryTypeExpense, names["Outros"])
}

func TestGetCategoriesMergesUserOwned(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	mine, err := store.CreateCategory(ctx, "user-1", "Viagens", model.CategoryTypeExpense)
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "user-2", "Ginásio", model.CategoryTypeExpense)
	require.NoError(t, err)

	categories, err := store.GetCategories(ctx, "user-1")
	require.NoError(t, err)

	var sawMine, sawTheirs bool
	for _, cat := range categories {
		if cat.ID == mine.ID {
			sawMine = true
		}
		if cat.Name == "Ginásio" {
			sawTheirs = true
		}
	}
	assert.True(t, sawMine)
	assert.False(t, sawTheirs, "another user's categories stay invisible")
}

func TestGetCategoryByID(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	mine, err := store.CreateCategory(ctx, "user-1", "Viagens", model.CategoryTypeExpense)
	require.NoError(t, err)

	got, err := store.GetCategoryByID(ctx, "user-1", mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Viagens", got.Name)

	_, err = store.GetCategoryByID(ctx, "user-2", mine.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateCategoryRejectsUnknownType(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.CreateCategory(context.Background(), "user-1", "Estranho", "savings")
	assert.Error(t, err)
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "user-1", "Viagens", model.CategoryTypeExpense)
	require.NoError(t, err)

	_, err = store.CreateCategory(ctx, "user-1", "Viagens", model.CategoryTypeExpense)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry, "names are unique per user")
}
