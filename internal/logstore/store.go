package logstore

import (
	"context"
	"time"
)

// Entry is one logged agent response. Immutable once appended.
// Timestamp is kept as an RFC 3339 string so that entries written by
// older deployments (or by hand) survive a read even when malformed;
// readers must treat it as best-effort.
type Entry struct {
	Agent     string `json:"agent"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewEntry builds an entry stamped with the current UTC time.
func NewEntry(agent, content string) Entry {
	return Entry{
		Agent:     agent,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Store is the per-topic append-only log. Topics are created implicitly
// on first append. Get never fails for an unknown topic; it returns an
// empty slice. Implementations must not lose entries under concurrent
// appends to the same topic.
type Store interface {
	Append(ctx context.Context, topic string, entry Entry) error
	Get(ctx context.Context, topic string) ([]Entry, error)
	Contains(ctx context.Context, topic string) (bool, error)
}
