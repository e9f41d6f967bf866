// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/vinybarreto/extrato/internal/model"
)

// Storage defines the contract for our persistence layer. Every operation is
// scoped to a caller-supplied user ID; the core never observes cross-user data.
type Storage interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	GetDuplicateCandidates(ctx context.Context, userID, accountID, date string, amount float64) ([]model.Transaction, error)
	FindSimilarByMerchant(ctx context.Context, userID, merchant, excludeCategoryID string, limit int) ([]string, error)
	FindSimilarByDescription(ctx context.Context, userID, pattern, excludeCategoryID string, limit int) ([]string, error)
	UpdateCategoryByIDs(ctx context.Context, userID string, ids []string, categoryID string) (int64, error)
	UpdateCategoryByMerchant(ctx context.Context, userID, merchant, categoryID string) (int64, error)
	UpdateCategoryByDescription(ctx context.Context, userID, pattern, categoryID string) (int64, error)

	// Category operations
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, userID, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, userID, name string, categoryType model.CategoryType) (*model.Category, error)

	// Learned pattern operations
	UpsertLearnedPattern(ctx context.Context, pattern *model.LearnedPattern) error
	GetLearnedPatterns(ctx context.Context, userID string, minConfidence float64) ([]model.LearnedPattern, error)
	IncrementPatternUsage(ctx context.Context, id string) error

	// Import batch audit records
	CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error
	FinalizeImportBatch(ctx context.Context, batch *model.ImportBatch) error
	ListImportBatches(ctx context.Context, userID string, limit int) ([]model.ImportBatch, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
