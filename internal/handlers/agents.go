package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// RunAgentRequest is the body of POST /v1/run/{agent}.
type RunAgentRequest struct {
	Topic string `json:"topic"`
	Query string `json:"query,omitempty"`
}

// RunAgent handles POST /v1/run/{agent}
func (h *Handler) RunAgent(w http.ResponseWriter, r *http.Request) {
	agentName := mux.Vars(r)["agent"]

	var req RunAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeJSONError(w, http.StatusBadRequest, "topic is required")
		return
	}

	output, err := h.service.RunAgent(r.Context(), agentName, req.Topic, req.Query)
	if err != nil {
		log.Warn().Err(err).Str("agent", agentName).Str("topic", req.Topic).Msg("Agent run failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  agentName,
		"topic":  req.Topic,
		"output": output,
	})
}

// RunAgentVoice handles POST /v1/voice/{agent}. It accepts a multipart
// form with a "topic" field and an "audio_file" upload, transcribes the
// audio, runs the agent, and replies with synthesized speech.
func (h *Handler) RunAgentVoice(w http.ResponseWriter, r *http.Request) {
	agentName := mux.Vars(r)["agent"]

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	topic := strings.TrimSpace(r.FormValue("topic"))
	if topic == "" {
		writeJSONError(w, http.StatusBadRequest, "topic is required")
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	uploadPath, err := saveUpload(file, header.Filename)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist uploaded audio")
		writeJSONError(w, http.StatusInternalServerError, "failed to store uploaded audio")
		return
	}
	// The upload is an input artifact only; remove it no matter how the
	// request ends.
	defer func() {
		if err := os.Remove(uploadPath); err != nil {
			log.Warn().Err(err).Str("path", uploadPath).Msg("Failed to remove uploaded audio")
		}
	}()

	result, err := h.service.RunAgentVoice(r.Context(), agentName, topic, uploadPath)
	if err != nil {
		log.Warn().Err(err).Str("agent", agentName).Str("topic", topic).Msg("Voice agent run failed")
		writeServiceError(w, err)
		return
	}

	log.Info().
		Str("agent", agentName).
		Str("topic", topic).
		Str("transcript", result.Transcript).
		Msg("Voice agent run completed")
	// Header values must stay within printable ASCII; transcripts are
	// arbitrary model output, so the header carries them percent-encoded.
	w.Header().Set("X-Transcript", url.PathEscape(result.Transcript))
	if result.ArchiveURL != "" {
		w.Header().Set("X-Archive-Url", result.ArchiveURL)
	}
	writeAudioFile(w, result.AudioPath, "response.wav")
}

// saveUpload copies the uploaded audio to a temp file, preserving the
// original extension so the transcriber can pick a MIME type.
func saveUpload(src io.Reader, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".wav"
	}
	tmp, err := os.CreateTemp("", "voice_input_*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
