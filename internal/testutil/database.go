// Package testutil provides shared helpers for package tests: an isolated
// in-memory database with migrations applied and fixture seeding.
package testutil

import (
	"context"
	"testing"

	"github.com/vinybarreto/extrato/internal/model"
	"github.com/vinybarreto/extrato/internal/service"
	"github.com/vinybarreto/extrato/internal/storage"
)

// TestDB wraps an in-memory database for one test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory SQLite database. The default
// global categories are seeded by the migrations; cleanup is automatic.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// CategoryByName looks up a seeded category, failing the test if absent.
func (db *TestDB) CategoryByName(ctx context.Context, userID, name string) model.Category {
	db.t.Helper()

	categories, err := db.Storage.GetCategories(ctx, userID)
	if err != nil {
		db.t.Fatalf("failed to load categories: %v", err)
	}
	for _, cat := range categories {
		if cat.Name == name {
			return cat
		}
	}
	db.t.Fatalf("category %q not seeded", name)
	return model.Category{}
}

// SeedTransaction persists a transaction, failing the test on error.
func (db *TestDB) SeedTransaction(ctx context.Context, txn model.Transaction) model.Transaction {
	db.t.Helper()

	if err := db.Storage.SaveTransaction(ctx, &txn); err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}
