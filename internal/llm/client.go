// Package llm suggests categories for transactions that no learned pattern
// covers, using the Anthropic API.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/vinybarreto/extrato/internal/common"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Complete sends a single prompt and returns the model's text output.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds common configuration for LLM clients.
type Config struct {
	APIKey            string
	Model             string
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
	CacheTTL          time.Duration
}

// Suggestion is a proposed category for one transaction.
type Suggestion struct {
	CategoryID string
	Confidence float64
}

// NewClient creates an Anthropic-backed client from the config.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key", common.ErrMissingConfig)
	}
	return newAnthropicClient(cfg), nil
}
