package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAI completes prompts with OpenAI chat models
type openAI struct {
	client *openai.Client
	model  string
}

func newOpenAI(model, apiKey string) (*openAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("PORTALBOT_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &openAI{client: openai.NewClient(apiKey), model: model}, nil
}

func (o *openAI) name() string { return "OpenAI" }

func (o *openAI) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: 512,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
