package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinybarreto/extrato/internal/model"
)

type fakeStore struct {
	candidates map[string][]model.Transaction
	err        error
}

func (f *fakeStore) GetDuplicateCandidates(_ context.Context, _, _, date string, _ float64) ([]model.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates[date], nil
}

func TestDetectorCheck(t *testing.T) {
	ctx := context.Background()

	existing := model.Transaction{
		ID:          "tx-1",
		Date:        "2025-09-01",
		Amount:      12.50,
		Description: "Compra Continente",
	}
	store := &fakeStore{candidates: map[string][]model.Transaction{
		"2025-09-01": {existing},
	}}
	detector := NewDetector(store)

	tests := []struct {
		name          string
		txn           model.Transaction
		wantDuplicate bool
		wantID        string
	}{
		{
			name:          "exact description",
			txn:           model.Transaction{Date: "2025-09-01", Amount: 12.50, Description: "Compra Continente"},
			wantDuplicate: true,
			wantID:        "tx-1",
		},
		{
			name:          "high bigram overlap",
			txn:           model.Transaction{Date: "2025-09-01", Amount: 12.50, Description: "Compra Continente Lisboa"},
			wantDuplicate: true,
			wantID:        "tx-1",
		},
		{
			name:          "different description",
			txn:           model.Transaction{Date: "2025-09-01", Amount: 12.50, Description: "Uber Eats"},
			wantDuplicate: false,
		},
		{
			name:          "no candidates on that date",
			txn:           model.Transaction{Date: "2025-09-02", Amount: 12.50, Description: "Compra Continente"},
			wantDuplicate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := detector.Check(ctx, "user-1", "acc-1", tt.txn)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDuplicate, check.IsDuplicate)
			assert.Equal(t, tt.wantID, check.ExistingID)
			if tt.wantDuplicate {
				assert.GreaterOrEqual(t, check.MatchScore, DuplicateThreshold)
			} else {
				assert.Zero(t, check.MatchScore, "non-duplicates report a zero score")
			}
		})
	}
}

func TestDetectorCheckStoreError(t *testing.T) {
	detector := NewDetector(&fakeStore{err: errors.New("db closed")})

	_, err := detector.Check(context.Background(), "user-1", "acc-1",
		model.Transaction{Date: "2025-09-01", Amount: 1, Description: "x"})
	assert.Error(t, err)
}

func TestDetectorCheckBatchKeysByIndex(t *testing.T) {
	ctx := context.Background()

	store := &fakeStore{candidates: map[string][]model.Transaction{
		"2025-09-01": {{ID: "tx-1", Date: "2025-09-01", Amount: 10, Description: "Netflix"}},
	}}
	detector := NewDetector(store)

	txns := []model.Transaction{
		{Date: "2025-09-05", Amount: 10, Description: "Netflix"},
		{Date: "2025-09-01", Amount: 10, Description: "Netflix"},
		{Date: "2025-09-01", Amount: 10, Description: "Spotify Premium"},
	}

	results, err := detector.CheckBatch(ctx, "user-1", "acc-1", txns)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[0].IsDuplicate, "different date")
	assert.True(t, results[1].IsDuplicate)
	assert.Equal(t, "tx-1", results[1].ExistingID)
	assert.False(t, results[2].IsDuplicate, "different description")
}
