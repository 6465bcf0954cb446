// Package speech owns the process-wide synthesis and transcription
// engines. Both are expensive to construct, stateful, and not safe for
// concurrent invocation, so the Manager wraps them behind one mutex
// held for the duration of a full operation.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyText rejects synthesis of empty or whitespace-only input
	// before the engine is touched.
	ErrEmptyText = errors.New("text is empty")
	// ErrNoSpeech is returned when transcription finds no recognizable
	// speech. A user-correctable condition, not an engine failure.
	ErrNoSpeech = errors.New("no speech recognized")
)

// Synthesizer renders text to a WAV file at the given path. Blocking.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, path string) error
}

// Transcriber returns the recognized text for an audio file. May return
// empty text for silence or noise. Blocking.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Manager serializes access to one Synthesizer and one Transcriber.
//
// A single mutex guards both: whether the recognition model tolerates
// running concurrently with synthesis is undocumented for the engines we
// ship, so the conservative choice is one lock across both until a
// chosen engine's thread-safety guarantees say otherwise.
type Manager struct {
	mu    sync.Mutex
	synth Synthesizer
	stt   Transcriber
	dir   string
}

// NewManager creates a manager writing audio artifacts into dir, which
// is created if missing.
func NewManager(synth Synthesizer, stt Transcriber, dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio dir: %w", err)
	}
	return &Manager{synth: synth, stt: stt, dir: dir}, nil
}

// Synthesize renders text to a fresh WAV file and returns its path.
// Concurrent callers queue on the engine lock; each gets its own output
// file. Files are never deleted here; cleanup belongs to the caller.
func (m *Manager) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	// A timestamp alone collides under rapid calls; the uuid suffix
	// makes the name unique regardless of clock granularity.
	name := fmt.Sprintf("response_%d_%s.wav", time.Now().UTC().UnixNano(), uuid.NewString())
	path := filepath.Join(m.dir, name)

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	if err := m.synth.Synthesize(ctx, text, path); err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int("text_length", len(text)).
		Dur("took", time.Since(start)).
		Msg("Audio synthesized")

	return path, nil
}

// Transcribe runs the recognition model on the audio file. Returns
// ErrNoSpeech when the recording holds no recognizable words.
func (m *Manager) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	text, err := m.stt.Transcribe(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoSpeech
	}

	log.Debug().
		Str("path", audioPath).
		Int("text_length", len(text)).
		Msg("Audio transcribed")

	return text, nil
}
