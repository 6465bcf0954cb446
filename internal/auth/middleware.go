// Package auth provides optional bearer-token authentication. A single
// API key is accepted, configured as a bcrypt hash so the plaintext key
// never lives in the environment.
package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Service handles authentication
type Service struct {
	keyHash string
}

// NewService creates an auth service. An empty keyHash disables
// authentication entirely.
func NewService(keyHash string) *Service {
	if keyHash == "" {
		log.Warn().Msg("API_KEY_HASH not set, authentication disabled")
	}
	return &Service{keyHash: keyHash}
}

// Enabled reports whether requests are actually checked.
func (s *Service) Enabled() bool { return s.keyHash != "" }

// Middleware rejects requests whose bearer token does not match the
// configured key. A no-op when authentication is disabled.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeJSONError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(s.keyHash), []byte(parts[1])); err != nil {
			log.Debug().Msg("API key mismatch")
			writeJSONError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
