package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GeminiGenerator calls the Gemini API through langchaingo.
type GeminiGenerator struct {
	llm   llms.Model
	model string
}

// NewGeminiGenerator creates a generator for the given Gemini model.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}

	log.Info().Str("model", model).Msg("Gemini generator initialized")

	return &GeminiGenerator{llm: llm, model: model}, nil
}

// Generate runs the prompt through the model and returns the trimmed
// completion.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: prompt}}},
	}

	resp, err := g.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrBackend, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: gemini returned no choices", ErrBackend)
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}
