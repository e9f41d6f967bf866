package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSetsSchemaVersion(t *testing.T) {
	store := createTestStorage(t)

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	categories, err := store.GetCategories(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, categories, 10, "default categories are seeded once")
}
