package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	genai "google.golang.org/genai"
)

// GeminiSynthesizer renders text through the Gemini TTS models. Not safe
// for concurrent use; the Manager provides the required serialization.
type GeminiSynthesizer struct {
	client *genai.Client
	model  string
	voice  string
	rate   int     // words-per-minute pacing hint
	volume float64 // 0.0 - 1.0, folded into the tone hint
}

// NewGeminiSynthesizer creates the synthesis engine. apiEndpoint may be
// empty for the default Gemini base URL.
func NewGeminiSynthesizer(ctx context.Context, apiKey, apiEndpoint, model, voice string, rate int, volume float64) (*GeminiSynthesizer, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey}
	if apiEndpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: apiEndpoint}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client for TTS: %w", err)
	}

	log.Info().
		Str("model", model).
		Str("voice", voice).
		Int("rate", rate).
		Msg("TTS engine initialized")

	return &GeminiSynthesizer{
		client: client,
		model:  model,
		voice:  voice,
		rate:   rate,
		volume: volume,
	}, nil
}

// Synthesize configures the voice, streams the rendered audio and blocks
// until the file is fully written.
func (s *GeminiSynthesizer) Synthesize(ctx context.Context, text, path string) error {
	loudness := "at a moderate volume"
	switch {
	case s.volume >= 0.9:
		loudness = "at full volume"
	case s.volume < 0.5:
		loudness = "softly"
	}
	prompt := fmt.Sprintf("[tone: clear and measured, about %d words per minute, %s] %s", s.rate, loudness, text)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}

	temp := float32(1.0)
	config := &genai.GenerateContentConfig{
		Temperature:        &temp,
		ResponseModalities: []string{"audio"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: s.voice,
				},
			},
		},
	}

	var audioBuffer bytes.Buffer
	var lastMimeType string

	for resp, err := range s.client.Models.GenerateContentStream(ctx, s.model, contents, config) {
		if err != nil {
			return fmt.Errorf("TTS stream error: %w", err)
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		cand := resp.Candidates[0]
		if cand.Content == nil || cand.Content.Parts == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				audioBuffer.Write(part.InlineData.Data)
				if part.InlineData.MIMEType != "" {
					lastMimeType = part.InlineData.MIMEType
				}
			}
		}
	}

	if audioBuffer.Len() == 0 {
		return fmt.Errorf("TTS returned no audio data")
	}

	audioBytes := audioBuffer.Bytes()
	if lastMimeType != "" && strings.HasPrefix(lastMimeType, "audio/L") {
		audioBytes = convertToWAV(audioBytes, lastMimeType)
	}

	if err := os.WriteFile(path, audioBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("audio_size_bytes", len(audioBytes)).
		Str("voice", s.voice).
		Msg("TTS audio written")

	return nil
}
