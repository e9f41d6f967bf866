package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultModel = "claude-sonnet-4-5-20250929"

// anthropicClient implements Client on top of the official SDK.
type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func newAnthropicClient(cfg Config) Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return &anthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete sends the prompt as a single user message and concatenates the
// text blocks of the reply.
func (c *anthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
