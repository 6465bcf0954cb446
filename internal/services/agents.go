package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/parley-labs/parley/internal/events"
	"github.com/parley-labs/parley/internal/logstore"
	"github.com/parley-labs/parley/internal/markup"
	"github.com/parley-labs/parley/internal/narration"
	"github.com/parley-labs/parley/internal/storage"
)

// ErrTopicNotFound is returned by read operations on a topic with no
// entries. Narration is the exception: it narrates the absence instead.
var ErrTopicNotFound = errors.New("no logs found for topic")

// dispatcher is the slice of agents.Dispatcher used here.
type dispatcher interface {
	Dispatch(ctx context.Context, agentName, topic, query string) (string, error)
	Names() []string
}

// speaker is the slice of speech.Manager used here.
type speaker interface {
	Synthesize(ctx context.Context, text string) (string, error)
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// archiver is the slice of storage.Client used here.
type archiver interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, contentLength int64) error
	PublicURL(key string) string
	GeneratePresignedURL(key string, expiration time.Duration) (string, error)
}

// archiveLinkTTL bounds presigned archive links when the bucket has no
// public base URL.
const archiveLinkTTL = 24 * time.Hour

// AgentService composes dispatch, logging and speech into the operations
// the API exposes.
type AgentService struct {
	store      logstore.Store
	dispatcher dispatcher
	speech     speaker
	producer   *events.Producer // nil disables append events
	archive    archiver         // nil disables the audio archive
	watchers   *watchHub

	generateTimeout time.Duration // zero means no limit
	speechTimeout   time.Duration
}

// NewAgentService wires the service. producer may be nil.
func NewAgentService(store logstore.Store, d dispatcher, sp speaker, producer *events.Producer) *AgentService {
	return &AgentService{
		store:      store,
		dispatcher: d,
		speech:     sp,
		producer:   producer,
		watchers:   newWatchHub(),
	}
}

// WithArchive enables the audio archive. Archived replies get a download
// link attached to the voice response.
func (s *AgentService) WithArchive(a archiver) *AgentService {
	s.archive = a
	return s
}

// WithTimeouts caps how long a single model call or speech engine call
// may run. Zero durations leave the caller's context in charge.
func (s *AgentService) WithTimeouts(generate, speech time.Duration) *AgentService {
	s.generateTimeout = generate
	s.speechTimeout = speech
	return s
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Agents returns the known agent names.
func (s *AgentService) Agents() []string {
	return s.dispatcher.Names()
}

// RunAgent dispatches the agent on the topic, appends the reply to the
// topic log and returns the reply text. query may be empty.
func (s *AgentService) RunAgent(ctx context.Context, agentName, topic, query string) (string, error) {
	genCtx, cancel := withTimeout(ctx, s.generateTimeout)
	defer cancel()
	output, err := s.dispatcher.Dispatch(genCtx, agentName, topic, query)
	if err != nil {
		return "", err
	}

	entry := logstore.NewEntry(agentName, output)
	if err := s.store.Append(ctx, topic, entry); err != nil {
		return "", fmt.Errorf("failed to log agent response: %w", err)
	}
	s.afterAppend(ctx, topic, entry)

	return output, nil
}

// VoiceResult is the outcome of a voice agent run.
type VoiceResult struct {
	AudioPath  string
	Transcript string
	ArchiveURL string // empty when the archive is disabled or the upload failed
}

// RunAgentVoice transcribes the uploaded recording, dispatches the agent
// with the transcript as its query, logs the reply and synthesizes it.
// The caller owns cleanup of the uploaded input file.
func (s *AgentService) RunAgentVoice(ctx context.Context, agentName, topic, uploadPath string) (*VoiceResult, error) {
	sttCtx, cancelSTT := withTimeout(ctx, s.speechTimeout)
	defer cancelSTT()
	transcript, err := s.speech.Transcribe(sttCtx, uploadPath)
	if err != nil {
		return nil, err
	}

	genCtx, cancelGen := withTimeout(ctx, s.generateTimeout)
	defer cancelGen()
	output, err := s.dispatcher.Dispatch(genCtx, agentName, topic, transcript)
	if err != nil {
		return nil, err
	}

	entry := logstore.NewEntry(agentName, output)
	if err := s.store.Append(ctx, topic, entry); err != nil {
		return nil, fmt.Errorf("failed to log agent response: %w", err)
	}
	s.afterAppend(ctx, topic, entry)

	ttsCtx, cancelTTS := withTimeout(ctx, s.speechTimeout)
	defer cancelTTS()
	audioPath, err := s.speech.Synthesize(ttsCtx, markup.ToSpeech(output))
	if err != nil {
		return nil, err
	}

	return &VoiceResult{
		AudioPath:  audioPath,
		Transcript: transcript,
		ArchiveURL: s.archiveAudio(ctx, topic, agentName, audioPath),
	}, nil
}

// GetLogs returns the topic's entries in append order, or
// ErrTopicNotFound when there are none.
func (s *AgentService) GetLogs(ctx context.Context, topic string) ([]logstore.Entry, error) {
	known, err := s.store.Contains(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}

	entries, err := s.store.Get(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic log: %w", err)
	}
	return entries, nil
}

// TextToSpeech synthesizes arbitrary text and returns the audio path.
func (s *AgentService) TextToSpeech(ctx context.Context, text string) (string, error) {
	ttsCtx, cancel := withTimeout(ctx, s.speechTimeout)
	defer cancel()
	return s.speech.Synthesize(ttsCtx, markup.ToSpeech(text))
}

// ReadLogsAloud narrates the topic's entries (optionally filtered by
// agent) and synthesizes the narration. Never a not-found error: an
// empty topic is narrated as such.
func (s *AgentService) ReadLogsAloud(ctx context.Context, topic, agentFilter string) (string, error) {
	entries, err := s.store.Get(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("failed to read topic log: %w", err)
	}

	text := narration.Build(topic, entries, agentFilter)
	ttsCtx, cancel := withTimeout(ctx, s.speechTimeout)
	defer cancel()
	return s.speech.Synthesize(ttsCtx, markup.ToSpeech(text))
}

// Watch subscribes to entries appended to the topic after this call.
// The returned cancel func must be called to release the subscription.
func (s *AgentService) Watch(topic string) (<-chan logstore.Entry, func()) {
	return s.watchers.subscribe(topic)
}

// afterAppend handles the best-effort side effects of an accepted
// append: watcher notification and the Kafka event. Neither failure
// fails the request.
func (s *AgentService) afterAppend(ctx context.Context, topic string, entry logstore.Entry) {
	s.watchers.notify(topic, entry)

	if err := s.producer.PublishEntryAppended(ctx, entry, topic, uuid.NewString()); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish append event")
	}
}

// archiveAudio uploads a synthesized reply to the S3 archive, keyed per
// topic, and returns a download link for it: the public URL when the
// bucket has one, a presigned link otherwise. Best-effort; returns ""
// when the archive is disabled or any step fails.
func (s *AgentService) archiveAudio(ctx context.Context, topic, agentName, audioPath string) string {
	if s.archive == nil {
		return ""
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		log.Warn().Err(err).Str("path", audioPath).Msg("Failed to read audio for archiving")
		return ""
	}

	key := storage.ArchiveKey(topic, agentName, uuid.NewString())
	if err := s.archive.Upload(ctx, key, bytes.NewReader(data), "audio/wav", int64(len(data))); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to archive audio")
		return ""
	}

	if url := s.archive.PublicURL(key); url != "" {
		return url
	}
	url, err := s.archive.GeneratePresignedURL(key, archiveLinkTTL)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to presign archive link")
		return ""
	}
	return url
}
