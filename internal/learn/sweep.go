package learn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinybarreto/extrato/internal/model"
)

// SweepResult summarizes a bulk re-categorization pass.
type SweepResult struct {
	PatternsApplied int
	RowsUpdated     int64
	Errors          int
}

// Sweep applies every learned pattern at or above MinSweepConfidence to the
// user's committed transactions. Failures on individual patterns are logged
// and counted; the sweep continues.
func (l *Learner) Sweep(ctx context.Context, userID string) (SweepResult, error) {
	patterns, err := l.storage.GetLearnedPatterns(ctx, userID, MinSweepConfidence)
	if err != nil {
		return SweepResult{}, fmt.Errorf("loading learned patterns: %w", err)
	}

	var result SweepResult
	for _, p := range patterns {
		updated, err := l.applyPattern(ctx, userID, p)
		if err != nil {
			slog.Warn("pattern sweep failed",
				"pattern_id", p.ID,
				"merchant", p.Merchant,
				"error", err)
			result.Errors++
			continue
		}
		if updated > 0 {
			result.PatternsApplied++
			result.RowsUpdated += updated
			if err := l.storage.IncrementPatternUsage(ctx, p.ID); err != nil {
				slog.Warn("recording pattern usage failed", "pattern_id", p.ID, "error", err)
			}
		}
	}
	return result, nil
}

func (l *Learner) applyPattern(ctx context.Context, userID string, p model.LearnedPattern) (int64, error) {
	var total int64
	if p.Merchant != "" {
		n, err := l.storage.UpdateCategoryByMerchant(ctx, userID, p.Merchant, p.CategoryID)
		if err != nil {
			return total, fmt.Errorf("updating by merchant: %w", err)
		}
		total += n
	}
	if p.DescriptionPattern != "" {
		n, err := l.storage.UpdateCategoryByDescription(ctx, userID, p.DescriptionPattern, p.CategoryID)
		if err != nil {
			return total, fmt.Errorf("updating by description: %w", err)
		}
		total += n
	}
	return total, nil
}
