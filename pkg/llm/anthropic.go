package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	modelName string
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client:    &client,
		model:     anthropic.ModelClaudeHaiku4_5,
		modelName: "claude-4.5-haiku",
	}
}

func (c *AnthropicClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	if len(resp.Content) == 0 {
		return "", &ProviderError{Kind: ErrUnknown, Message: "no response from anthropic"}
	}

	return strings.TrimSpace(resp.Content[0].Text), nil
}

func classifyAnthropicError(err error) *ProviderError {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return &ProviderError{Kind: ErrTransient, Message: err.Error()}
	}

	switch {
	case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
		return &ProviderError{Kind: ErrAuth, Message: apierr.Error()}
	case apierr.StatusCode == http.StatusTooManyRequests:
		return &ProviderError{
			Kind:    ErrRateLimit,
			Message: apierr.Error(),
			Wait:    retryAfter(apierr.Response),
		}
	case apierr.StatusCode >= http.StatusInternalServerError:
		return &ProviderError{Kind: ErrTransient, Message: apierr.Error()}
	default:
		return &ProviderError{Kind: ErrUnknown, Message: apierr.Error()}
	}
}
