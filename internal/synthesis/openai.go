package synthesis

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAICompleter implements Completer on the OpenAI chat completions API in
// JSON mode.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter creates a completer sharing the embedding package's
// OpenAI client.
func NewOpenAICompleter(client *openai.Client, model string) *OpenAICompleter {
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &OpenAICompleter{client: client, model: model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: c.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
