// Package model defines the core domain models used throughout the application.
package model

// TransactionType encodes the direction of a transaction. Amounts are always
// stored as non-negative magnitudes; direction lives here and nowhere else.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// Transaction is the canonical record every statement parser produces,
// independent of source format.
type Transaction struct {
	ID          string
	UserID      string
	AccountID   string
	CategoryID  string
	Date        string // calendar date as printed by the source, YYYY-MM-DD
	Description string
	Merchant    string // optional; empty when not confidently derivable
	Notes       string // provenance metadata for audit display only
	Currency    string // ISO-like 3-letter code from source metadata
	RawData     string // verbatim source row/block, never interpreted downstream
	Type        TransactionType
	Amount      float64 // always >= 0
}
