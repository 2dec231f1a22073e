package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claude completes prompts with Anthropic's Claude
type claude struct {
	client *anthropic.Client
	model  string
}

func newClaude(model, apiKey string) (*claude, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("PORTALBOT_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	return &claude{client: &client, model: model}, nil
}

func (c *claude) name() string { return "Claude" }

func (c *claude) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
