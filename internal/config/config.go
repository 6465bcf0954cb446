package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr string
	LogLevel string

	// Auth (optional): bcrypt hash of the accepted bearer token.
	// Empty disables authentication.
	APIKeyHash string

	// Log store backing: "memory" or "postgres"
	LogBackend  string
	DatabaseURL string

	// Generation backend: "ollama", "gemini" or "openai"
	LLMProvider string
	OllamaURL   string
	OllamaModel string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiModelTTS    string // TTS model, e.g. gemini-2.5-pro-preview-tts
	GeminiModelSTT    string // transcription model, e.g. gemini-2.5-flash
	GeminiTTSVoice    string // TTS voice name, e.g. Zephyr, Puck, Aoede
	GeminiAPIEndpoint string // if set, overrides default Gemini API base URL

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Speech
	AudioDir       string  // working directory for synthesized audio files
	SpeechRate     int     // words-per-minute hint passed to the engine
	SpeechVolume   float64 // 0.0 - 1.0
	MaxUploadBytes int64   // max size of a voice upload

	// Kafka append events (optional; empty brokers disables)
	KafkaBrokers     []string
	KafkaTopicEvents string

	// S3 audio archive (optional; empty bucket disables)
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	// Timeouts
	GenerateTimeout time.Duration
	SpeechTimeout   time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIKeyHash: getEnv("API_KEY_HASH", ""),

		LogBackend:  getEnv("LOG_BACKEND", "memory"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
		OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getEnv("OLLAMA_MODEL", "llama3"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiModelTTS:    getEnv("GEMINI_MODEL_TTS", "gemini-2.5-pro-preview-tts"),
		GeminiModelSTT:    getEnv("GEMINI_MODEL_STT", "gemini-2.5-flash"),
		GeminiTTSVoice:    getEnv("GEMINI_TTS_VOICE", "Zephyr"),
		GeminiAPIEndpoint: getEnv("GEMINI_API_ENDPOINT", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		AudioDir:       getEnv("AUDIO_DIR", "audio"),
		SpeechRate:     getEnvInt("SPEECH_RATE", 150),
		SpeechVolume:   getEnvFloat("SPEECH_VOLUME", 0.8),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 25*1024*1024), // 25MB

		KafkaBrokers:     splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicEvents: getEnv("KAFKA_TOPIC_EVENTS", "parley.log-entries.v1"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		GenerateTimeout: getEnvDuration("GENERATE_TIMEOUT", 2*time.Minute),
		SpeechTimeout:   getEnvDuration("SPEECH_TIMEOUT", 2*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
