package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
	"github.com/vinybarreto/extrato/internal/service"
)

// MaxBatchSize is the hard ceiling on transactions per categorization
// request. Imports with more uncategorized records than this skip the API.
const MaxBatchSize = 50

// IndexedTransaction pairs a transaction with its position in the preview,
// so responses correlate by index rather than by ordering.
type IndexedTransaction struct {
	Index int
	Txn   model.Transaction
}

// Categorizer batches uncategorized transactions into a single prompt and
// maps the model's reply back onto preview indexes.
type Categorizer struct {
	client  Client
	limiter *rateLimiter
	cache   *suggestionCache
	retry   service.RetryOptions
}

// NewCategorizer creates a categorizer with rate limiting and caching.
func NewCategorizer(client Client, cfg Config) *Categorizer {
	return &Categorizer{
		client:  client,
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		cache:   newSuggestionCache(cfg.CacheTTL),
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Categorize suggests a category for each transaction it can. Transactions
// absent from the result carry no suggestion. Cached suggestions are served
// without an API call.
func (c *Categorizer) Categorize(ctx context.Context, txns []IndexedTransaction, categories []model.Category) (map[int]Suggestion, error) {
	if len(txns) == 0 {
		return nil, nil
	}
	if len(txns) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit of %d", len(txns), MaxBatchSize)
	}

	results := make(map[int]Suggestion)
	var pending []IndexedTransaction
	for _, it := range txns {
		if cached, ok := c.cache.get(cacheKey(it.Txn.Merchant, it.Txn.Description)); ok {
			results[it.Index] = cached
			continue
		}
		pending = append(pending, it)
	}
	if len(pending) == 0 {
		return results, nil
	}

	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	prompt := buildPrompt(pending, categories)

	var raw string
	err := common.WithRetry(ctx, func() error {
		var completeErr error
		raw, completeErr = c.client.Complete(ctx, prompt)
		return completeErr
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("categorization request failed: %w", err)
	}

	suggestions, err := parseSuggestions(raw, pending, categories)
	if err != nil {
		return nil, err
	}

	for index, s := range suggestions {
		results[index] = s
	}
	for _, it := range pending {
		if s, ok := suggestions[it.Index]; ok {
			c.cache.set(cacheKey(it.Txn.Merchant, it.Txn.Description), s)
		}
	}
	return results, nil
}

// Close releases the rate limiter and cache goroutines.
func (c *Categorizer) Close() {
	c.limiter.Close()
	c.cache.Close()
}

func buildPrompt(txns []IndexedTransaction, categories []model.Category) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant. Assign a category to each bank transaction below.\n\n")
	b.WriteString("Available categories:\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", cat.ID, cat.Name, cat.Type)
	}

	b.WriteString("\nTransactions:\n")
	for _, it := range txns {
		fmt.Fprintf(&b, "- index %d: %s | %s | %.2f %s | merchant %q | description %q\n",
			it.Index, it.Txn.Date, it.Txn.Type, it.Txn.Amount, it.Txn.Currency,
			it.Txn.Merchant, it.Txn.Description)
	}

	b.WriteString("\nRespond with only a JSON array, one object per transaction you can categorize:\n")
	b.WriteString(`[{"index": 0, "categoryId": "...", "confidence": 0.85}]` + "\n")
	b.WriteString("Use only the category ids listed above. Omit transactions you are not reasonably sure about. Confidence is between 0 and 1.\n")

	return b.String()
}

// parseSuggestions extracts the JSON array from the reply, which may be
// wrapped in prose or a markdown fence, and drops entries with unknown
// indexes or category ids.
func parseSuggestions(raw string, txns []IndexedTransaction, categories []model.Category) (map[int]Suggestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in response", common.ErrCategorizationFailed)
	}

	var entries []struct {
		CategoryID string  `json:"categoryId"`
		Index      int     `json:"index"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("%w: parsing response JSON: %v", common.ErrCategorizationFailed, err)
	}

	validIndex := make(map[int]bool, len(txns))
	for _, it := range txns {
		validIndex[it.Index] = true
	}
	validCategory := make(map[string]bool, len(categories))
	for _, cat := range categories {
		validCategory[cat.ID] = true
	}

	results := make(map[int]Suggestion, len(entries))
	for _, e := range entries {
		if !validIndex[e.Index] {
			slog.Warn("dropping suggestion for unknown index", "index", e.Index)
			continue
		}
		if !validCategory[e.CategoryID] {
			slog.Warn("dropping suggestion with unknown category", "index", e.Index, "category_id", e.CategoryID)
			continue
		}
		confidence := e.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		results[e.Index] = Suggestion{CategoryID: e.CategoryID, Confidence: confidence}
	}
	return results, nil
}
