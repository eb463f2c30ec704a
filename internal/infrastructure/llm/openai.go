package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"BrandPulse/internal/config"
	"BrandPulse/internal/ports"
)

// OpenAICompleter implements the completion transport over the OpenAI
// chat API. Retry with backoff is handled inside the SDK client; this
// layer errors only when retries are exhausted.
type OpenAICompleter struct {
	client      openai.Client
	model       openai.ChatModel
	temperature float64
}

var _ ports.Completer = (*OpenAICompleter)(nil)

// NewOpenAICompleter builds a client from configuration.
func NewOpenAICompleter(cfg config.OpenAIConfig) *OpenAICompleter {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return &OpenAICompleter{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(retries),
		),
		model:       openai.ChatModel(cfg.Model),
		temperature: cfg.Temperature,
	}
}

// Complete sends the chat turns and returns the raw completion text.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []ports.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toUnionMessages(messages),
		Temperature: openai.Float(c.temperature),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

func toUnionMessages(messages []ports.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
