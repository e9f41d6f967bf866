// Package storage provides the SQLite persistence layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vinybarreto/extrato/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidPattern     = errors.New("invalid learned pattern")
	ErrInvalidBatch       = errors.New("invalid import batch")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction validates a single transaction before persisting.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if txn.Date == "" {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if txn.Amount < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidTransaction)
	}
	switch txn.Type {
	case model.TypeIncome, model.TypeExpense, model.TypeTransfer:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	return nil
}

// validatePattern validates a learned pattern before persisting.
func validatePattern(p *model.LearnedPattern) error {
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidPattern)
	}
	if p.CategoryID == "" {
		return fmt.Errorf("%w: missing category ID", ErrInvalidPattern)
	}
	if p.Merchant == "" && p.DescriptionPattern == "" {
		return fmt.Errorf("%w: needs a merchant or a description pattern", ErrInvalidPattern)
	}
	return nil
}

// validateBatch validates an import batch audit record.
func validateBatch(b *model.ImportBatch) error {
	if b == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if b.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidBatch)
	}
	if b.FileName == "" {
		return fmt.Errorf("%w: missing file name", ErrInvalidBatch)
	}
	return nil
}
