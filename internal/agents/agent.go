// Package agents holds the fixed set of response personas and the
// dispatcher that routes a request to one of them.
package agents

import (
	"context"
	"errors"
)

var (
	// ErrUnknownAgent is returned for an agent name outside the known set.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrQueryRequired is returned when a persona that needs a query is
	// dispatched without one.
	ErrQueryRequired = errors.New("agent requires a query")
)

// Agent is a response persona invoked with a topic.
type Agent interface {
	Name() string
	Run(ctx context.Context, topic string) (string, error)
}

// QueryAgent is implemented by personas that also accept a secondary
// input (a free-form query or a voice transcript). The dispatcher checks
// for this interface instead of guessing at call shapes, so a persona
// can gain query support without breaking any caller.
type QueryAgent interface {
	Agent
	RunWithQuery(ctx context.Context, topic, query string) (string, error)
}
