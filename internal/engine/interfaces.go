// Package engine orchestrates the import flow: detect, parse, flag
// duplicates, suggest categories, and commit.
package engine

import (
	"context"

	"github.com/vinybarreto/extrato/internal/llm"
	"github.com/vinybarreto/extrato/internal/model"
)

// Categorizer proposes categories for transactions no learned pattern
// covers. Implementations correlate answers to inputs by index.
type Categorizer interface {
	Categorize(ctx context.Context, txns []llm.IndexedTransaction, categories []model.Category) (map[int]llm.Suggestion, error)
}
