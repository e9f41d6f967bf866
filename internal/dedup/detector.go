package dedup

import (
	"context"
	"fmt"

	"github.com/vinybarreto/extrato/internal/model"
)

// CandidateStore provides committed transactions that share an exact date
// and amount with an incoming record.
type CandidateStore interface {
	GetDuplicateCandidates(ctx context.Context, userID, accountID, date string, amount float64) ([]model.Transaction, error)
}

// Detector flags incoming transactions that look like records the user has
// already imported.
type Detector struct {
	store CandidateStore
}

// NewDetector creates a duplicate detector backed by the given store.
func NewDetector(store CandidateStore) *Detector {
	return &Detector{store: store}
}

// Check scores txn against existing transactions with the same date and
// amount. It returns the best match at or above DuplicateThreshold, or a
// zero-score non-duplicate result when nothing qualifies.
func (d *Detector) Check(ctx context.Context, userID, accountID string, txn model.Transaction) (model.DuplicateCheck, error) {
	candidates, err := d.store.GetDuplicateCandidates(ctx, userID, accountID, txn.Date, txn.Amount)
	if err != nil {
		return model.DuplicateCheck{}, fmt.Errorf("querying duplicate candidates: %w", err)
	}

	best := model.DuplicateCheck{}
	for _, existing := range candidates {
		score := matchScore(txn.Description, existing.Description)
		if score >= DuplicateThreshold && score > best.MatchScore {
			best = model.DuplicateCheck{
				ExistingID:  existing.ID,
				MatchScore:  score,
				IsDuplicate: true,
			}
		}
	}
	return best, nil
}

// CheckBatch runs Check for every transaction and returns results keyed by
// input index, so callers can correlate without relying on ordering.
func (d *Detector) CheckBatch(ctx context.Context, userID, accountID string, txns []model.Transaction) (map[int]model.DuplicateCheck, error) {
	results := make(map[int]model.DuplicateCheck, len(txns))
	for i, txn := range txns {
		check, err := d.Check(ctx, userID, accountID, txn)
		if err != nil {
			return nil, fmt.Errorf("checking transaction %d: %w", i, err)
		}
		results[i] = check
	}
	return results, nil
}
