package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. baseURL may be empty for the
// default OpenAI endpoint, or point at any compatible server.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if trimmed := strings.TrimRight(baseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	client := openai.NewClient(opts...)

	log.Info().
		Str("model", model).
		Str("base_url", baseURL).
		Msg("OpenAI generator initialized")

	return &OpenAIGenerator{client: &client, model: model}
}

// Generate runs the prompt through the model and returns the trimmed
// completion.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", ErrBackend, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrBackend)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
