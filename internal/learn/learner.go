// Package learn records category corrections as reusable patterns and
// matches new transactions against them.
package learn

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vinybarreto/extrato/internal/model"
	"github.com/vinybarreto/extrato/internal/service"
)

const (
	// MinSuggestConfidence is the floor for a learned pattern to produce a
	// suggestion during import preview.
	MinSuggestConfidence = 0.5

	// MinSweepConfidence is the stricter floor for bulk re-categorization of
	// already committed transactions.
	MinSweepConfidence = 0.7

	// similarLimit caps how many existing transactions a single correction
	// is reported against.
	similarLimit = 100
)

var patternNonWord = regexp.MustCompile(`[^\w\s]`)

// ExtractPattern reduces a free-form description to a short key: lowercase,
// punctuation stripped, then the first three tokens longer than three
// characters. Returns "" when no token qualifies.
func ExtractPattern(description string) string {
	cleaned := patternNonWord.ReplaceAllString(strings.ToLower(description), "")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) > 3 {
			tokens = append(tokens, word)
			if len(tokens) == 3 {
				break
			}
		}
	}
	return strings.Join(tokens, " ")
}

// FindLearnedCategory matches a transaction against learned patterns.
// Merchant matches take priority over description matches; within each
// kind the first pattern in stored order wins.
func FindLearnedCategory(patterns []model.LearnedPattern, txn model.Transaction) (model.LearnedPattern, bool) {
	merchant := strings.ToLower(txn.Merchant)
	description := strings.ToLower(txn.Description)

	if merchant != "" {
		for _, p := range patterns {
			if p.Merchant == "" {
				continue
			}
			stored := strings.ToLower(p.Merchant)
			if stored == merchant || strings.Contains(merchant, stored) || strings.Contains(stored, merchant) {
				return p, true
			}
		}
	}

	for _, p := range patterns {
		if p.DescriptionPattern == "" {
			continue
		}
		if strings.Contains(description, strings.ToLower(p.DescriptionPattern)) {
			return p, true
		}
	}

	return model.LearnedPattern{}, false
}

// Learner persists corrections and reports which committed transactions a
// correction also applies to.
type Learner struct {
	storage service.Storage
}

// NewLearner creates a learner backed by the given storage.
func NewLearner(storage service.Storage) *Learner {
	return &Learner{storage: storage}
}

// Learn records a user correction as a full-confidence pattern and returns
// the IDs of committed transactions that share the same merchant or
// description shape but carry a different category, capped at 100.
func (l *Learner) Learn(ctx context.Context, userID string, txn model.Transaction, categoryID string) ([]string, error) {
	pattern := model.LearnedPattern{
		UserID:             userID,
		Merchant:           strings.ToLower(txn.Merchant),
		DescriptionPattern: ExtractPattern(txn.Description),
		CategoryID:         categoryID,
		Confidence:         1.0,
	}
	if pattern.Merchant == "" && pattern.DescriptionPattern == "" {
		return nil, nil
	}

	if err := l.storage.UpsertLearnedPattern(ctx, &pattern); err != nil {
		return nil, fmt.Errorf("saving learned pattern: %w", err)
	}

	seen := make(map[string]bool)
	var similar []string
	add := func(ids []string) {
		for _, id := range ids {
			if !seen[id] && len(similar) < similarLimit {
				seen[id] = true
				similar = append(similar, id)
			}
		}
	}

	if pattern.Merchant != "" {
		ids, err := l.storage.FindSimilarByMerchant(ctx, userID, pattern.Merchant, categoryID, similarLimit)
		if err != nil {
			return nil, fmt.Errorf("finding similar by merchant: %w", err)
		}
		add(ids)
	}
	if pattern.DescriptionPattern != "" && len(similar) < similarLimit {
		ids, err := l.storage.FindSimilarByDescription(ctx, userID, pattern.DescriptionPattern, categoryID, similarLimit)
		if err != nil {
			return nil, fmt.Errorf("finding similar by description: %w", err)
		}
		add(ids)
	}

	return similar, nil
}
