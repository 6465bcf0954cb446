// Package narration turns log entries into a spoken-style string for
// synthesis. Build is pure and never fails: malformed historical
// entries degrade to safe fallback phrases instead of errors.
package narration

import (
	"fmt"
	"strings"
	"time"

	"github.com/parley-labs/parley/internal/logstore"
)

// timestampLayouts are tried in order when rendering an entry timestamp.
// Older entries may lack a zone suffix or fractional seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Build composes one narration string for the topic's entries. An empty
// agentFilter keeps all entries; a non-empty one keeps entries whose
// agent matches case-insensitively. The two "nothing found" cases
// produce distinct sentences so the listener can tell them apart.
func Build(topic string, entries []logstore.Entry, agentFilter string) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No logs found for topic %s", topic)
	}

	if agentFilter != "" {
		filtered := entries[:0:0]
		for _, e := range entries {
			if strings.EqualFold(e.Agent, agentFilter) {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			return fmt.Sprintf("No logs found for agent %s in topic %s", agentFilter, topic)
		}
		entries = filtered
	}

	parts := []string{fmt.Sprintf("Reading logs for topic %s.", topic)}
	for i, e := range entries {
		agent := e.Agent
		if agent == "" {
			agent = "Unknown"
		}
		content := e.Content
		if content == "" {
			content = "No content"
		}
		parts = append(parts, fmt.Sprintf("Log %d. Agent %s on %s said: %s",
			i+1, agent, speakableTime(e.Timestamp), content))
	}
	return strings.Join(parts, " ")
}

// speakableTime renders a stored timestamp for speech, e.g.
// "January 02 at 03:04 PM". Anything unparseable becomes "unknown time".
func speakableTime(ts string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("January 02 at 03:04 PM")
		}
	}
	return "unknown time"
}
