// Package llm provides the shared text-generation call used by every
// agent persona. Backends are selected by configuration; all of them
// surface failures as ErrBackend so callers can distinguish a broken
// backend from user input errors.
package llm

import (
	"context"
	"errors"
)

// ErrBackend marks a failed or malformed text-generation call. Not
// retried; surfaced to the request boundary as a service error.
var ErrBackend = errors.New("generation backend failure")

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
