package agents

import (
	"context"
	"fmt"

	"github.com/parley-labs/parley/internal/llm"
)

// Devil argues against the prevailing view on a topic. Topic-only; a
// voice transcript passed to it is ignored by the dispatcher fallback.
type Devil struct {
	gen llm.Generator
}

func NewDevil(gen llm.Generator) *Devil { return &Devil{gen: gen} }

func (a *Devil) Name() string { return "Devil" }

func (a *Devil) Run(ctx context.Context, topic string) (string, error) {
	prompt := fmt.Sprintf(`You are a devil's advocate. Challenge the common assumptions about the topic below with sharp, well-reasoned counterarguments.

Topic: %s

Give your three strongest counterarguments in plain prose suitable for reading aloud.`, topic)
	return a.gen.Generate(ctx, prompt)
}

// Insight surfaces non-obvious observations about a topic. Accepts an
// optional query that narrows the angle.
type Insight struct {
	gen llm.Generator
}

func NewInsight(gen llm.Generator) *Insight { return &Insight{gen: gen} }

func (a *Insight) Name() string { return "Insight" }

func (a *Insight) Run(ctx context.Context, topic string) (string, error) {
	return a.RunWithQuery(ctx, topic, "")
}

func (a *Insight) RunWithQuery(ctx context.Context, topic, query string) (string, error) {
	prompt := fmt.Sprintf(`You are an analyst looking for non-obvious insights. Identify the most interesting and least discussed aspects of the topic below.

Topic: %s`, topic)
	if query != "" {
		prompt += fmt.Sprintf("\nFocus on: %s", query)
	}
	prompt += "\n\nRespond in plain prose suitable for reading aloud."
	return a.gen.Generate(ctx, prompt)
}

// Research answers a specific question about a topic. The query is not
// optional: dispatching it without one fails with ErrQueryRequired.
type Research struct {
	gen llm.Generator
}

func NewResearch(gen llm.Generator) *Research { return &Research{gen: gen} }

func (a *Research) Name() string { return "Research" }

func (a *Research) Run(ctx context.Context, topic string) (string, error) {
	return "", fmt.Errorf("%w: Research", ErrQueryRequired)
}

func (a *Research) RunWithQuery(ctx context.Context, topic, query string) (string, error) {
	prompt := fmt.Sprintf(`You are a research assistant. Answer the question below in the context of the given topic, citing the reasoning behind your answer.

Topic: %s
Question: %s

Respond in plain prose suitable for reading aloud.`, topic, query)
	return a.gen.Generate(ctx, prompt)
}

// Summarizer condenses a topic into its essentials. Topic-only.
type Summarizer struct {
	gen llm.Generator
}

func NewSummarizer(gen llm.Generator) *Summarizer { return &Summarizer{gen: gen} }

func (a *Summarizer) Name() string { return "Summarizer" }

func (a *Summarizer) Run(ctx context.Context, topic string) (string, error) {
	prompt := fmt.Sprintf(`You are a summarizer. Condense the essential facts and open questions of the topic below into a short spoken-style summary.

Topic: %s`, topic)
	return a.gen.Generate(ctx, prompt)
}
