package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vinybarreto/extrato/internal/model"
)

// CreateImportBatch records the start of an ingestion run.
func (s *SQLiteStorage) CreateImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}

	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.Status == "" {
		batch.Status = model.BatchProcessing
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_batches (id, user_id, source_format, file_name, file_kind, status, total_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.UserID, string(batch.SourceFormat), batch.FileName,
		string(batch.FileKind), string(batch.Status), batch.TotalCount, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}
	return nil
}

// FinalizeImportBatch writes the outcome counts and marks the batch done.
func (s *SQLiteStorage) FinalizeImportBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}
	if err := validateString(batch.ID, "batch.ID"); err != nil {
		return err
	}

	if batch.CompletedAt.IsZero() {
		batch.CompletedAt = time.Now().UTC()
	}
	batch.Status = model.BatchCompleted

	result, err := s.db.ExecContext(ctx, `
		UPDATE import_batches
		SET status = ?, imported_count = ?, duplicate_count = ?, error_count = ?, completed_at = ?
		WHERE id = ? AND user_id = ?`,
		string(batch.Status), batch.ImportedCount, batch.DuplicateCount, batch.ErrorCount,
		batch.CompletedAt, batch.ID, batch.UserID)
	if err != nil {
		return fmt.Errorf("failed to finalize import batch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import batch %s not found", batch.ID)
	}
	return nil
}

// ListImportBatches returns the user's most recent ingestion runs.
func (s *SQLiteStorage) ListImportBatches(ctx context.Context, userID string, limit int) ([]model.ImportBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_format, file_name, file_kind, status, total_count, imported_count, duplicate_count, error_count, created_at, completed_at
		FROM import_batches
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []model.ImportBatch
	for rows.Next() {
		var b model.ImportBatch
		var format, kind, status string
		var completedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.UserID, &format, &b.FileName, &kind, &status,
			&b.TotalCount, &b.ImportedCount, &b.DuplicateCount, &b.ErrorCount,
			&b.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}
		b.SourceFormat = model.SourceFormat(format)
		b.FileKind = model.FileKind(kind)
		b.Status = model.BatchStatus(status)
		if completedAt.Valid {
			b.CompletedAt = completedAt.Time
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating import batches: %w", err)
	}
	return batches, nil
}
