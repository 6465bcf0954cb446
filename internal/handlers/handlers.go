package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/parley-labs/parley/internal/agents"
	"github.com/parley-labs/parley/internal/llm"
	"github.com/parley-labs/parley/internal/logstore"
	"github.com/parley-labs/parley/internal/services"
	"github.com/parley-labs/parley/internal/speech"
)

// agentService is the service surface the handlers need.
type agentService interface {
	Agents() []string
	RunAgent(ctx context.Context, agentName, topic, query string) (string, error)
	RunAgentVoice(ctx context.Context, agentName, topic, uploadPath string) (*services.VoiceResult, error)
	GetLogs(ctx context.Context, topic string) ([]logstore.Entry, error)
	TextToSpeech(ctx context.Context, text string) (string, error)
	ReadLogsAloud(ctx context.Context, topic, agentFilter string) (string, error)
	Watch(topic string) (<-chan logstore.Entry, func())
}

// Handler contains all HTTP handlers
type Handler struct {
	service        agentService
	maxUploadBytes int64
}

// NewHandler creates a new handler
func NewHandler(service agentService, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// Root handles GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Parley agent API is running",
		"agents":  h.service.Agents(),
	})
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListAgents handles GET /v1/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": h.service.Agents(),
	})
}

// writeServiceError maps service errors onto HTTP status codes: user
// input errors become 4xx, external dependency failures 5xx.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agents.ErrUnknownAgent):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrTopicNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, agents.ErrQueryRequired),
		errors.Is(err, speech.ErrEmptyText),
		errors.Is(err, speech.ErrNoSpeech):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrBackend):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeAudioFile streams a synthesized WAV file to the client. The file
// stays on disk; the audio directory is an external collaborator's to
// clean.
func writeAudioFile(w http.ResponseWriter, path, downloadName string) {
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to open synthesized audio")
		writeJSONError(w, http.StatusInternalServerError, "failed to read synthesized audio")
		return
	}
	defer f.Close()

	if downloadName == "" {
		downloadName = filepath.Base(path)
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Audio response interrupted")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
