package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

// GetCategories returns global categories plus the user's own, sorted by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, created_at FROM categories
		WHERE user_id = '' OR user_id = ?
		ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var catType string
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &catType, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Type = model.CategoryType(catType)
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByID fetches a category visible to the user.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, userID, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var cat model.Category
	var catType string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, created_at FROM categories
		WHERE id = ? AND (user_id = '' OR user_id = ?)`, id, userID).
		Scan(&cat.ID, &cat.UserID, &cat.Name, &catType, &cat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	cat.Type = model.CategoryType(catType)
	return &cat, nil
}

// CreateCategory adds a user-owned category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, userID, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if categoryType != model.CategoryTypeIncome && categoryType != model.CategoryTypeExpense {
		return nil, fmt.Errorf("unknown category type %q", categoryType)
	}

	cat := model.Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)`,
		cat.ID, cat.UserID, cat.Name, string(cat.Type))
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &cat, nil
}
