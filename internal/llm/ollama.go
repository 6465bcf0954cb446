package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaGenerator calls a local Ollama server.
type OllamaGenerator struct {
	llm   llms.Model
	model string
}

// NewOllamaGenerator creates a generator against the given Ollama server.
func NewOllamaGenerator(serverURL, model string) (*OllamaGenerator, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}

	log.Info().
		Str("server_url", serverURL).
		Str("model", model).
		Msg("Ollama generator initialized")

	return &OllamaGenerator{llm: llm, model: model}, nil
}

// Generate runs the prompt through the model and returns the trimmed
// completion.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: prompt}}},
	}

	resp, err := g.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %v", ErrBackend, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: ollama returned no choices", ErrBackend)
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}
