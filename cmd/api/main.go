package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/parley-labs/parley/internal/agents"
	"github.com/parley-labs/parley/internal/auth"
	"github.com/parley-labs/parley/internal/config"
	"github.com/parley-labs/parley/internal/events"
	"github.com/parley-labs/parley/internal/handlers"
	"github.com/parley-labs/parley/internal/llm"
	"github.com/parley-labs/parley/internal/logstore"
	"github.com/parley-labs/parley/internal/services"
	"github.com/parley-labs/parley/internal/speech"
	"github.com/parley-labs/parley/internal/storage"
	"github.com/parley-labs/parley/migrations"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Parley API")

	ctx := context.Background()

	store := buildStore(cfg)
	generator := buildGenerator(ctx, cfg)
	speechManager := buildSpeech(ctx, cfg)

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicEvents)
		defer producer.Close()
	}

	dispatcher := agents.NewDispatcher(generator)
	agentService := services.NewAgentService(store, dispatcher, speechManager, producer).
		WithTimeouts(cfg.GenerateTimeout, cfg.SpeechTimeout)

	if cfg.S3Bucket != "" {
		archive, err := storage.NewClient(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket,
			cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize audio archive")
		}
		agentService.WithArchive(archive)
	}

	h := handlers.NewHandler(agentService, cfg.MaxUploadBytes)
	authService := auth.NewService(cfg.APIKeyHash)

	r := mux.NewRouter()
	r.HandleFunc("/", h.Root).Methods("GET")
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(authService.Middleware)
	api.HandleFunc("/agents", h.ListAgents).Methods("GET")
	api.HandleFunc("/run/{agent}", h.RunAgent).Methods("POST")
	api.HandleFunc("/voice/{agent}", h.RunAgentVoice).Methods("POST")
	api.HandleFunc("/logs/{topic}", h.GetLogs).Methods("GET")
	api.HandleFunc("/tts", h.TextToSpeech).Methods("POST")
	api.HandleFunc("/read-logs", h.ReadLogsAloud).Methods("POST")
	api.HandleFunc("/read-logs/{topic}", h.ReadTopicAloud).Methods("GET")
	api.HandleFunc("/topics/{topic}/watch", h.WatchTopic).Methods("GET")

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
		// No WriteTimeout: voice responses stream synthesized audio and
		// the watch endpoint holds a WebSocket open.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("API exited")
}

// buildStore selects the topic log backing per LOG_BACKEND.
func buildStore(cfg *config.Config) logstore.Store {
	switch cfg.LogBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Fatal().Msg("DATABASE_URL required for LOG_BACKEND=postgres")
		}
		db, err := logstore.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		if err := migrations.Run(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		return logstore.NewPostgresStore(db)
	case "memory":
		log.Warn().Msg("Using in-memory log store; entries are lost on restart")
		return logstore.NewMemoryStore()
	default:
		log.Fatal().Str("backend", cfg.LogBackend).Msg("Unknown LOG_BACKEND")
		return nil
	}
}

// buildGenerator selects the text generation backend per LLM_PROVIDER.
func buildGenerator(ctx context.Context, cfg *config.Config) llm.Generator {
	switch cfg.LLMProvider {
	case "ollama":
		gen, err := llm.NewOllamaGenerator(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Ollama generator")
		}
		return gen
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatal().Msg("GEMINI_API_KEY required for LLM_PROVIDER=gemini")
		}
		gen, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini generator")
		}
		return gen
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal().Msg("OPENAI_API_KEY required for LLM_PROVIDER=openai")
		}
		return llm.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	default:
		log.Fatal().Str("provider", cfg.LLMProvider).Msg("Unknown LLM_PROVIDER")
		return nil
	}
}

// buildSpeech wires the shared synthesis and transcription engines.
func buildSpeech(ctx context.Context, cfg *config.Config) *speech.Manager {
	if cfg.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY required for speech synthesis and transcription")
	}

	synth, err := speech.NewGeminiSynthesizer(
		ctx, cfg.GeminiAPIKey, cfg.GeminiAPIEndpoint,
		cfg.GeminiModelTTS, cfg.GeminiTTSVoice,
		cfg.SpeechRate, cfg.SpeechVolume,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize speech synthesizer")
	}

	stt, err := speech.NewGeminiTranscriber(ctx, cfg.GeminiAPIKey, cfg.GeminiModelSTT)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize transcriber")
	}

	manager, err := speech.NewManager(synth, stt, cfg.AudioDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize speech manager")
	}
	return manager
}
