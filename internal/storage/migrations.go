package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					account_id TEXT NOT NULL DEFAULT '',
					category_id TEXT NOT NULL DEFAULT '',
					date TEXT NOT NULL,
					description TEXT NOT NULL,
					merchant TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					currency TEXT NOT NULL DEFAULT '',
					raw_data TEXT NOT NULL DEFAULT '',
					type TEXT NOT NULL,
					amount REAL NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_candidates ON transactions(user_id, account_id, date, amount)`,
				`CREATE INDEX idx_transactions_user_merchant ON transactions(user_id, merchant)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, name)
				)`,

				// merchant and description_pattern use '' instead of NULL so
				// the unique index backs ON CONFLICT upserts.
				`CREATE TABLE IF NOT EXISTS learned_patterns (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					merchant TEXT NOT NULL DEFAULT '',
					description_pattern TEXT NOT NULL DEFAULT '',
					category_id TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 1.0,
					times_applied INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, merchant, description_pattern)
				)`,

				`CREATE TABLE IF NOT EXISTS import_batches (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					source_format TEXT NOT NULL,
					file_name TEXT NOT NULL,
					file_kind TEXT NOT NULL,
					status TEXT NOT NULL,
					total_count INTEGER NOT NULL DEFAULT 0,
					imported_count INTEGER NOT NULL DEFAULT 0,
					duplicate_count INTEGER NOT NULL DEFAULT 0,
					error_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					completed_at DATETIME
				)`,
				`CREATE INDEX idx_import_batches_user_created ON import_batches(user_id, created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default global categories",
		Up: func(tx *sql.Tx) error {
			defaults := []struct {
				name  string
				cType string
			}{
				{"Alimentação", "expense"},
				{"Transporte", "expense"},
				{"Habitação", "expense"},
				{"Saúde", "expense"},
				{"Entretenimento", "expense"},
				{"Compras", "expense"},
				{"Salário", "income"},
				{"Investimentos", "income"},
				{"Transferências", "expense"},
				{"Outros", "expense"},
			}

			for _, c := range defaults {
				_, err := tx.Exec(
					`INSERT INTO categories (id, user_id, name, type) VALUES (?, '', ?, ?)
					 ON CONFLICT(user_id, name) DO NOTHING`,
					uuid.NewString(), c.name, c.cType)
				if err != nil {
					return fmt.Errorf("failed to seed category %s: %w", c.name, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
