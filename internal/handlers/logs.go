package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// GetLogs handles GET /v1/logs/{topic}
func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	entries, err := h.service.GetLogs(r.Context(), topic)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic": topic,
		"logs":  entries,
	})
}

// TextToSpeechRequest is the body of POST /v1/tts.
type TextToSpeechRequest struct {
	Text string `json:"text"`
}

// TextToSpeech handles POST /v1/tts
func (h *Handler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req TextToSpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	audioPath, err := h.service.TextToSpeech(r.Context(), req.Text)
	if err != nil {
		log.Warn().Err(err).Msg("Text to speech failed")
		writeServiceError(w, err)
		return
	}

	writeAudioFile(w, audioPath, "speech.wav")
}

// ReadLogsRequest is the body of POST /v1/read-logs.
type ReadLogsRequest struct {
	Topic       string `json:"topic"`
	AgentFilter string `json:"agent_filter,omitempty"`
}

// ReadLogsAloud handles POST /v1/read-logs
func (h *Handler) ReadLogsAloud(w http.ResponseWriter, r *http.Request) {
	var req ReadLogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeJSONError(w, http.StatusBadRequest, "topic is required")
		return
	}

	h.readLogs(w, r, req.Topic, req.AgentFilter)
}

// ReadTopicAloud handles GET /v1/read-logs/{topic}
func (h *Handler) ReadTopicAloud(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	h.readLogs(w, r, topic, r.URL.Query().Get("agent_filter"))
}

func (h *Handler) readLogs(w http.ResponseWriter, r *http.Request, topic, agentFilter string) {
	audioPath, err := h.service.ReadLogsAloud(r.Context(), topic, agentFilter)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Reading logs aloud failed")
		writeServiceError(w, err)
		return
	}

	writeAudioFile(w, audioPath, "logs.wav")
}
