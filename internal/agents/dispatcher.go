package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/parley-labs/parley/internal/llm"
)

// Dispatcher resolves an agent name to its persona and invokes it.
type Dispatcher struct {
	registry map[string]Agent
}

// NewDispatcher builds a dispatcher over the closed persona set, all
// sharing one generation backend.
func NewDispatcher(gen llm.Generator) *Dispatcher {
	d := &Dispatcher{registry: make(map[string]Agent)}
	for _, a := range []Agent{
		NewDevil(gen),
		NewInsight(gen),
		NewResearch(gen),
		NewSummarizer(gen),
	} {
		d.registry[a.Name()] = a
	}
	return d
}

// Names returns the known agent names, sorted.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.registry))
	for name := range d.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named agent on the topic. A non-empty query is
// passed only to personas that declare query support; for the rest it is
// dropped and the topic-only path runs, so a caller can always supply a
// transcript without knowing each persona's shape. The agent's response
// text is returned; logging and narration are the caller's concern.
func (d *Dispatcher) Dispatch(ctx context.Context, agentName, topic, query string) (string, error) {
	agent, ok := d.registry[agentName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAgent, agentName)
	}

	if query != "" {
		if qa, ok := agent.(QueryAgent); ok {
			return qa.RunWithQuery(ctx, topic, query)
		}
		log.Debug().
			Str("agent", agentName).
			Msg("Agent does not accept a query, running with topic only")
	}

	return agent.Run(ctx, topic)
}
