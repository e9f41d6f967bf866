package model

import "time"

// CategoryType indicates whether a category applies to income or expenses.
type CategoryType string

// Category type constants.
const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category is a spending/income category. Global categories have an empty
// UserID; user-owned categories carry the owner's ID.
type Category struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Name      string
	Type      CategoryType
}
