package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const transcribePrompt = "Transcribe the spoken words in this recording verbatim. " +
	"Return only the transcript text, without commentary. " +
	"If there is no intelligible speech, return nothing."

// GeminiTranscriber runs speech recognition through a Gemini multimodal
// model. Not safe for concurrent use; the Manager provides the required
// serialization.
type GeminiTranscriber struct {
	client *genai.Client
	model  string
}

// NewGeminiTranscriber creates the recognition engine.
func NewGeminiTranscriber(ctx context.Context, apiKey, model string) (*GeminiTranscriber, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client for transcription: %w", err)
	}

	log.Info().Str("model", model).Msg("Transcription engine initialized")

	return &GeminiTranscriber{client: client, model: model}, nil
}

// Transcribe reads the audio file and returns the recognized text.
// Empty text means silence or noise, not an error.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file: %w", err)
	}

	model := t.client.GenerativeModel(t.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(transcribePrompt),
		genai.Blob{MIMEType: audioMimeType(audioPath), Data: data},
	)
	if err != nil {
		return "", fmt.Errorf("transcription call failed: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	transcript := strings.TrimSpace(sb.String())
	log.Debug().
		Str("path", audioPath).
		Int("transcript_length", len(transcript)).
		Msg("Transcription complete")

	return transcript, nil
}

// audioMimeType maps a file extension to the MIME type expected by the
// recognition API. Unknown extensions fall back to audio/wav.
func audioMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mp3"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/wav"
	}
}
