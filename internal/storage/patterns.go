package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vinybarreto/extrato/internal/model"
)

// UpsertLearnedPattern inserts a correction pattern or, when the same
// (merchant, description) key exists for the user, refreshes its category,
// resets confidence to full, and bumps the usage counter.
func (s *SQLiteStorage) UpsertLearnedPattern(ctx context.Context, pattern *model.LearnedPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pattern); err != nil {
		return err
	}

	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	if pattern.Confidence == 0 {
		pattern.Confidence = 1.0
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learned_patterns (id, user_id, merchant, description_pattern, category_id, confidence, times_applied)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(user_id, merchant, description_pattern) DO UPDATE SET
			category_id = excluded.category_id,
			confidence = 1.0,
			times_applied = learned_patterns.times_applied + 1,
			updated_at = CURRENT_TIMESTAMP`,
		pattern.ID, pattern.UserID, pattern.Merchant, pattern.DescriptionPattern,
		pattern.CategoryID, pattern.Confidence)
	if err != nil {
		return fmt.Errorf("failed to upsert learned pattern: %w", err)
	}
	return nil
}

// GetLearnedPatterns returns the user's patterns at or above minConfidence,
// most recently taught first.
func (s *SQLiteStorage) GetLearnedPatterns(ctx context.Context, userID string, minConfidence float64) ([]model.LearnedPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, merchant, description_pattern, category_id, confidence, times_applied, created_at, updated_at
		FROM learned_patterns
		WHERE user_id = ? AND confidence >= ?
		ORDER BY updated_at DESC, id`, userID, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to query learned patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.LearnedPattern
	for rows.Next() {
		var p model.LearnedPattern
		if err := rows.Scan(&p.ID, &p.UserID, &p.Merchant, &p.DescriptionPattern,
			&p.CategoryID, &p.Confidence, &p.TimesApplied, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan learned pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating learned patterns: %w", err)
	}
	return patterns, nil
}

// IncrementPatternUsage bumps the usage counter after a sweep applies a
// pattern to committed transactions.
func (s *SQLiteStorage) IncrementPatternUsage(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET times_applied = times_applied + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment pattern usage: %w", err)
	}
	return nil
}
