package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

// candidateLimit caps how many same-date same-amount transactions a
// duplicate check compares against.
const candidateLimit = 10

// SaveTransaction persists a single transaction. An empty ID is assigned.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, date, description, merchant, notes, currency, raw_data, type, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.AccountID, txn.CategoryID, txn.Date, txn.Description,
		txn.Merchant, txn.Notes, txn.Currency, txn.RawData, string(txn.Type), txn.Amount)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// GetTransactionByID fetches one of the user's transactions.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_id, category_id, date, description, merchant, notes, currency, raw_data, type, amount
		FROM transactions WHERE user_id = ? AND id = ?`, userID, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetDuplicateCandidates returns committed transactions of the same account
// with an identical date and amount, most recent first.
func (s *SQLiteStorage) GetDuplicateCandidates(ctx context.Context, userID, accountID, date string, amount float64) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(date, "date"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, category_id, date, description, merchant, notes, currency, raw_data, type, amount
		FROM transactions
		WHERE user_id = ? AND account_id = ? AND date = ? AND amount = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, accountID, date, amount, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// FindSimilarByMerchant returns IDs of the user's transactions with the
// given merchant that are not already in the target category.
func (s *SQLiteStorage) FindSimilarByMerchant(ctx context.Context, userID, merchant, excludeCategoryID string, limit int) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE user_id = ? AND LOWER(merchant) = LOWER(?) AND category_id != ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, merchant, excludeCategoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar by merchant: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows)
}

// FindSimilarByDescription returns IDs of the user's transactions whose
// description contains the pattern, excluding the target category.
func (s *SQLiteStorage) FindSimilarByDescription(ctx context.Context, userID, pattern, excludeCategoryID string, limit int) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return nil, err
	}

	// instr instead of LIKE so _ in patterns is not a wildcard.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE user_id = ? AND instr(LOWER(description), LOWER(?)) > 0 AND category_id != ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, pattern, excludeCategoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar by description: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows)
}

// UpdateCategoryByIDs re-categorizes a specific set of the user's
// transactions and returns how many rows changed.
func (s *SQLiteStorage) UpdateCategoryByIDs(ctx context.Context, userID string, ids []string, categoryID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return 0, err
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+2)
	args = append(args, categoryID, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE transactions SET category_id = ? WHERE user_id = ? AND id IN (%s)`, placeholders),
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update categories by IDs: %w", err)
	}
	return result.RowsAffected()
}

// UpdateCategoryByMerchant re-categorizes the user's uncategorized
// transactions with the given merchant.
func (s *SQLiteStorage) UpdateCategoryByMerchant(ctx context.Context, userID, merchant, categoryID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?
		WHERE user_id = ? AND LOWER(merchant) = LOWER(?) AND category_id = ''`,
		categoryID, userID, merchant)
	if err != nil {
		return 0, fmt.Errorf("failed to update categories by merchant: %w", err)
	}
	return result.RowsAffected()
}

// UpdateCategoryByDescription re-categorizes the user's uncategorized
// transactions whose description contains the pattern.
func (s *SQLiteStorage) UpdateCategoryByDescription(ctx context.Context, userID, pattern, categoryID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?
		WHERE user_id = ? AND instr(LOWER(description), LOWER(?)) > 0 AND category_id = ''`,
		categoryID, userID, pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to update categories by description: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var txnType string
	err := row.Scan(&txn.ID, &txn.UserID, &txn.AccountID, &txn.CategoryID, &txn.Date,
		&txn.Description, &txn.Merchant, &txn.Notes, &txn.Currency, &txn.RawData,
		&txnType, &txn.Amount)
	if err != nil {
		return nil, err
	}
	txn.Type = model.TransactionType(txnType)
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating transactions: %w", err)
	}
	return txns, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating ids: %w", err)
	}
	return ids, nil
}
