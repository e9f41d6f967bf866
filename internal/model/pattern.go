package model

import "time"

// LearnedPattern is a user-taught association from a merchant or description
// fragment to a category, created by a manual correction during import review.
// Patterns are owned per user and upserted on every correction; a correction
// always resets confidence to 1.0 and increments the usage counter. Stale
// patterns remain until overwritten by a new correction with the same key.
type LearnedPattern struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ID                 string
	UserID             string
	Merchant           string // empty when the pattern is description-based
	DescriptionPattern string // canonical 3-token extract, empty for merchant-only
	CategoryID         string
	Confidence         float64
	TimesApplied       int
}
