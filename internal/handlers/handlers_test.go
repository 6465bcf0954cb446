package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/parley-labs/parley/internal/agents"
	"github.com/parley-labs/parley/internal/llm"
	"github.com/parley-labs/parley/internal/logstore"
	"github.com/parley-labs/parley/internal/services"
	"github.com/parley-labs/parley/internal/speech"
)

// fakeAgentService is a minimal agentService for tests.
type fakeAgentService struct {
	runAgent      func(ctx context.Context, agentName, topic, query string) (string, error)
	runAgentVoice func(ctx context.Context, agentName, topic, uploadPath string) (*services.VoiceResult, error)
	getLogs       func(ctx context.Context, topic string) ([]logstore.Entry, error)
	textToSpeech  func(ctx context.Context, text string) (string, error)
	readLogsAloud func(ctx context.Context, topic, agentFilter string) (string, error)
	watch         func(topic string) (<-chan logstore.Entry, func())
}

func (f *fakeAgentService) Agents() []string {
	return []string{"devil", "insight", "research", "summarizer"}
}

func (f *fakeAgentService) RunAgent(ctx context.Context, agentName, topic, query string) (string, error) {
	if f.runAgent != nil {
		return f.runAgent(ctx, agentName, topic, query)
	}
	return "ok", nil
}

func (f *fakeAgentService) RunAgentVoice(ctx context.Context, agentName, topic, uploadPath string) (*services.VoiceResult, error) {
	if f.runAgentVoice != nil {
		return f.runAgentVoice(ctx, agentName, topic, uploadPath)
	}
	return &services.VoiceResult{}, nil
}

func (f *fakeAgentService) GetLogs(ctx context.Context, topic string) ([]logstore.Entry, error) {
	if f.getLogs != nil {
		return f.getLogs(ctx, topic)
	}
	return nil, nil
}

func (f *fakeAgentService) TextToSpeech(ctx context.Context, text string) (string, error) {
	if f.textToSpeech != nil {
		return f.textToSpeech(ctx, text)
	}
	return "", nil
}

func (f *fakeAgentService) ReadLogsAloud(ctx context.Context, topic, agentFilter string) (string, error) {
	if f.readLogsAloud != nil {
		return f.readLogsAloud(ctx, topic, agentFilter)
	}
	return "", nil
}

func (f *fakeAgentService) Watch(topic string) (<-chan logstore.Entry, func()) {
	if f.watch != nil {
		return f.watch(topic)
	}
	ch := make(chan logstore.Entry)
	return ch, func() { close(ch) }
}

func newTestRouter(svc agentService) *mux.Router {
	h := NewHandler(svc, 1<<20)
	r := mux.NewRouter()
	r.HandleFunc("/v1/run/{agent}", h.RunAgent).Methods("POST")
	r.HandleFunc("/v1/voice/{agent}", h.RunAgentVoice).Methods("POST")
	r.HandleFunc("/v1/logs/{topic}", h.GetLogs).Methods("GET")
	r.HandleFunc("/v1/tts", h.TextToSpeech).Methods("POST")
	r.HandleFunc("/v1/read-logs", h.ReadLogsAloud).Methods("POST")
	r.HandleFunc("/v1/read-logs/{topic}", h.ReadTopicAloud).Methods("GET")
	r.HandleFunc("/v1/agents", h.ListAgents).Methods("GET")
	r.HandleFunc("/v1/topics/{topic}/watch", h.WatchTopic).Methods("GET")
	return r
}

// writeTestWAV creates a small fake audio file for handlers to stream.
func writeTestWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestRunAgent_Success asserts the happy path returns the agent output.
func TestRunAgent_Success(t *testing.T) {
	svc := &fakeAgentService{
		runAgent: func(ctx context.Context, agentName, topic, query string) (string, error) {
			if agentName != "devil" || topic != "climate" || query != "" {
				t.Errorf("unexpected args: %s %s %q", agentName, topic, query)
			}
			return "hot take", nil
		},
	}
	body := bytes.NewBufferString(`{"topic":"climate"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/run/devil", body)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["output"] != "hot take" {
		t.Errorf("expected output 'hot take', got %q", resp["output"])
	}
}

// TestRunAgent_UnknownAgent asserts 404 for an unregistered agent name.
func TestRunAgent_UnknownAgent(t *testing.T) {
	svc := &fakeAgentService{
		runAgent: func(ctx context.Context, agentName, topic, query string) (string, error) {
			return "", fmt.Errorf("%w: ghost", agents.ErrUnknownAgent)
		},
	}
	body := bytes.NewBufferString(`{"topic":"climate"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/run/ghost", body)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestRunAgent_MissingQuery asserts 400 when a query-requiring agent
// gets none.
func TestRunAgent_MissingQuery(t *testing.T) {
	svc := &fakeAgentService{
		runAgent: func(ctx context.Context, agentName, topic, query string) (string, error) {
			return "", fmt.Errorf("%w: Research", agents.ErrQueryRequired)
		},
	}
	body := bytes.NewBufferString(`{"topic":"climate"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/run/research", body)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestRunAgent_BackendFailure asserts 502 when the model backend fails.
func TestRunAgent_BackendFailure(t *testing.T) {
	svc := &fakeAgentService{
		runAgent: func(ctx context.Context, agentName, topic, query string) (string, error) {
			return "", fmt.Errorf("%w: ollama: connection refused", llm.ErrBackend)
		},
	}
	body := bytes.NewBufferString(`{"topic":"climate"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/run/devil", body)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestRunAgent_MissingTopic asserts 400 when the body has no topic.
func TestRunAgent_MissingTopic(t *testing.T) {
	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/run/devil", body)
	rec := httptest.NewRecorder()

	newTestRouter(&fakeAgentService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestGetLogs_NotFound asserts 404 for a topic with no entries.
func TestGetLogs_NotFound(t *testing.T) {
	svc := &fakeAgentService{
		getLogs: func(ctx context.Context, topic string) ([]logstore.Entry, error) {
			return nil, fmt.Errorf("%w: %s", services.ErrTopicNotFound, topic)
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/logs/nothing", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestGetLogs_Success asserts the entries are returned under "logs".
func TestGetLogs_Success(t *testing.T) {
	svc := &fakeAgentService{
		getLogs: func(ctx context.Context, topic string) ([]logstore.Entry, error) {
			return []logstore.Entry{{Agent: "devil", Content: "hi", Timestamp: "2026-01-02T15:04:05Z"}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/logs/climate", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Topic string           `json:"topic"`
		Logs  []logstore.Entry `json:"logs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Topic != "climate" || len(resp.Logs) != 1 || resp.Logs[0].Agent != "devil" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

// TestTextToSpeech_EmptyText asserts 400 for blank input.
func TestTextToSpeech_EmptyText(t *testing.T) {
	svc := &fakeAgentService{
		textToSpeech: func(ctx context.Context, text string) (string, error) {
			return "", speech.ErrEmptyText
		},
	}
	body := bytes.NewBufferString(`{"text":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/tts", body)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestTextToSpeech_StreamsAudio asserts the WAV bytes come back with
// the audio content type.
func TestTextToSpeech_StreamsAudio(t *testing.T) {
	path := writeTestWAV(t)
	svc := &fakeAgentService{
		textToSpeech: func(ctx context.Context, text string) (string, error) {
			return path, nil
		},
	}
	body := bytes.NewBufferString(`{"text":"hello there"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/tts", body)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("expected audio/wav, got %q", ct)
	}
	if rec.Body.String() != "RIFFfake" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

// TestReadLogsAloud_EmptyTopicStillOK asserts reading an empty topic is
// not an error at the HTTP layer.
func TestReadLogsAloud_EmptyTopicStillOK(t *testing.T) {
	path := writeTestWAV(t)
	svc := &fakeAgentService{
		readLogsAloud: func(ctx context.Context, topic, agentFilter string) (string, error) {
			return path, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/read-logs/empty-topic", nil)
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestReadLogsAloud_FilterPassedThrough asserts the agent filter
// reaches the service from both routes.
func TestReadLogsAloud_FilterPassedThrough(t *testing.T) {
	path := writeTestWAV(t)
	var gotFilter string
	svc := &fakeAgentService{
		readLogsAloud: func(ctx context.Context, topic, agentFilter string) (string, error) {
			gotFilter = agentFilter
			return path, nil
		},
	}
	router := newTestRouter(svc)

	body := bytes.NewBufferString(`{"topic":"climate","agent_filter":"devil"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/read-logs", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotFilter != "devil" {
		t.Errorf("POST: code %d, filter %q", rec.Code, gotFilter)
	}

	gotFilter = ""
	req = httptest.NewRequest(http.MethodGet, "/v1/read-logs/climate?agent_filter=insight", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotFilter != "insight" {
		t.Errorf("GET: code %d, filter %q", rec.Code, gotFilter)
	}
}

// TestRunAgentVoice_CleansUpUpload asserts the stored upload is removed
// after the request, success or failure.
func TestRunAgentVoice_CleansUpUpload(t *testing.T) {
	respPath := writeTestWAV(t)
	for name, svcErr := range map[string]error{
		"success": nil,
		"failure": fmt.Errorf("%w", speech.ErrNoSpeech),
	} {
		t.Run(name, func(t *testing.T) {
			var seenUpload string
			svc := &fakeAgentService{
				runAgentVoice: func(ctx context.Context, agentName, topic, uploadPath string) (*services.VoiceResult, error) {
					seenUpload = uploadPath
					if _, err := os.Stat(uploadPath); err != nil {
						t.Errorf("upload missing during handling: %v", err)
					}
					if svcErr != nil {
						return nil, svcErr
					}
					return &services.VoiceResult{AudioPath: respPath, Transcript: "what about climate"}, nil
				},
			}

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			if err := mw.WriteField("topic", "climate"); err != nil {
				t.Fatal(err)
			}
			fw, err := mw.CreateFormFile("audio_file", "question.wav")
			if err != nil {
				t.Fatal(err)
			}
			fw.Write([]byte("RIFFinput"))
			mw.Close()

			req := httptest.NewRequest(http.MethodPost, "/v1/voice/insight", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			rec := httptest.NewRecorder()

			newTestRouter(svc).ServeHTTP(rec, req)

			if seenUpload == "" {
				t.Fatal("service never called")
			}
			if _, err := os.Stat(seenUpload); !os.IsNotExist(err) {
				t.Errorf("upload %s not cleaned up", seenUpload)
			}
			if svcErr == nil && rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if svcErr != nil && rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

// voiceRequest builds a valid multipart voice request for tests.
func voiceRequest(t *testing.T, agent string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("topic", "climate"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("audio_file", "question.wav")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("RIFFinput"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/voice/"+agent, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// TestRunAgentVoice_TranscriptHeaderEncoded asserts the transcript
// header stays within printable ASCII whatever the model recognized.
func TestRunAgentVoice_TranscriptHeaderEncoded(t *testing.T) {
	respPath := writeTestWAV(t)
	transcript := "qué pasa\r\nwith naïve plans"
	svc := &fakeAgentService{
		runAgentVoice: func(ctx context.Context, agentName, topic, uploadPath string) (*services.VoiceResult, error) {
			return &services.VoiceResult{AudioPath: respPath, Transcript: transcript}, nil
		},
	}
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, voiceRequest(t, "insight"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	header := rec.Header().Get("X-Transcript")
	if header == "" {
		t.Fatal("transcript header missing")
	}
	for i := 0; i < len(header); i++ {
		if header[i] < 0x20 || header[i] > 0x7e {
			t.Fatalf("header byte %#x at %d outside printable ASCII: %q", header[i], i, header)
		}
	}
	decoded, err := url.PathUnescape(header)
	if err != nil {
		t.Fatalf("header does not decode: %v", err)
	}
	if decoded != transcript {
		t.Errorf("decoded %q, want %q", decoded, transcript)
	}
}

// TestRunAgentVoice_ArchiveLinkHeader asserts the archive link rides
// along as a header when present and is omitted when not.
func TestRunAgentVoice_ArchiveLinkHeader(t *testing.T) {
	respPath := writeTestWAV(t)
	link := "https://cdn.example.com/audio-logs/climate/agent_insight_1.wav"
	svc := &fakeAgentService{
		runAgentVoice: func(ctx context.Context, agentName, topic, uploadPath string) (*services.VoiceResult, error) {
			return &services.VoiceResult{AudioPath: respPath, ArchiveURL: link}, nil
		},
	}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, voiceRequest(t, "insight"))
	if got := rec.Header().Get("X-Archive-Url"); got != link {
		t.Errorf("expected archive link header %q, got %q", link, got)
	}

	svc.runAgentVoice = func(ctx context.Context, agentName, topic, uploadPath string) (*services.VoiceResult, error) {
		return &services.VoiceResult{AudioPath: respPath}, nil
	}
	rec = httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, voiceRequest(t, "insight"))
	if got := rec.Header().Get("X-Archive-Url"); got != "" {
		t.Errorf("expected no archive link header, got %q", got)
	}
}

// TestRunAgentVoice_MissingFile asserts 400 without an audio_file part.
func TestRunAgentVoice_MissingFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("topic", "climate")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/voice/insight", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	newTestRouter(&fakeAgentService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestWatchTopic_StreamsAppends dials the watch endpoint over a real
// WebSocket and asserts an appended entry reaches the client.
func TestWatchTopic_StreamsAppends(t *testing.T) {
	entries := make(chan logstore.Entry, 1)
	cancelled := make(chan struct{})
	svc := &fakeAgentService{
		watch: func(topic string) (<-chan logstore.Entry, func()) {
			if topic != "live-topic" {
				t.Errorf("subscribed to %q", topic)
			}
			return entries, func() { close(cancelled) }
		},
	}

	srv := httptest.NewServer(newTestRouter(svc))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/topics/live-topic/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	want := logstore.Entry{Agent: "Devil", Content: "watched reply", Timestamp: "2026-01-02T15:04:05Z"}
	entries <- want

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got logstore.Entry
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Closing the channel ends the handler, which releases the
	// subscription.
	close(entries)
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Error("subscription not released after stream ended")
	}
}

// TestListAgents returns the registered agent names.
func TestListAgents(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/agents", nil)
	rec := httptest.NewRecorder()

	newTestRouter(&fakeAgentService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Agents []string `json:"agents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Agents) != 4 {
		t.Errorf("expected 4 agents, got %v", resp.Agents)
	}
}
