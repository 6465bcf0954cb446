package narration

import (
	"strings"
	"testing"

	"github.com/parley-labs/parley/internal/logstore"
)

func TestBuild_EmptyEntries(t *testing.T) {
	got := Build("climate", nil, "")
	if got != "No logs found for topic climate" {
		t.Errorf("got %q", got)
	}

	// The filter does not change the topic-empty sentence.
	got = Build("climate", []logstore.Entry{}, "Devil")
	if got != "No logs found for topic climate" {
		t.Errorf("got %q", got)
	}
}

func TestBuild_FilterMatchesNothing(t *testing.T) {
	entries := []logstore.Entry{
		{Agent: "Insight", Content: "a thought", Timestamp: "2024-01-01T10:00:00Z"},
	}
	got := Build("climate", entries, "Devil")
	if got != "No logs found for agent Devil in topic climate" {
		t.Errorf("got %q", got)
	}
}

func TestBuild_FilterIsCaseInsensitive(t *testing.T) {
	entries := []logstore.Entry{
		{Agent: "Devil", Content: "objection", Timestamp: "2024-01-01T10:00:00Z"},
		{Agent: "Insight", Content: "a thought", Timestamp: "2024-01-01T10:01:00Z"},
	}
	got := Build("climate", entries, "devil")
	if !strings.Contains(got, "objection") {
		t.Errorf("filter missed matching entry: %q", got)
	}
	if strings.Contains(got, "a thought") {
		t.Errorf("filter kept non-matching entry: %q", got)
	}
}

func TestBuild_EntrySentence(t *testing.T) {
	entries := []logstore.Entry{
		{Agent: "A", Content: "hi", Timestamp: "2024-01-01T10:00:00"},
	}
	got := Build("t", entries, "")

	for _, want := range []string{"Reading logs for topic t.", "Log 1.", "Agent A", "hi", "January 01"} {
		if !strings.Contains(got, want) {
			t.Errorf("narration %q missing %q", got, want)
		}
	}
}

func TestBuild_GarbageTimestampFallsBack(t *testing.T) {
	entries := []logstore.Entry{
		{Agent: "A", Content: "hi", Timestamp: "garbage"},
	}
	got := Build("t", entries, "")
	if !strings.Contains(got, "unknown time") {
		t.Errorf("expected fallback time, got %q", got)
	}
	if !strings.Contains(got, "Agent A") || !strings.Contains(got, "hi") {
		t.Errorf("entry fields missing from %q", got)
	}
}

func TestBuild_MissingFieldsDefaulted(t *testing.T) {
	entries := []logstore.Entry{
		{Agent: "", Content: "", Timestamp: ""},
	}
	got := Build("t", entries, "")
	if !strings.Contains(got, "Agent Unknown") || !strings.Contains(got, "No content") {
		t.Errorf("defaults missing from %q", got)
	}
}

func TestBuild_PreservesOrderAndPositions(t *testing.T) {
	entries := []logstore.Entry{
		{Agent: "A", Content: "first", Timestamp: "2024-01-01T10:00:00Z"},
		{Agent: "B", Content: "second", Timestamp: "2024-01-01T10:00:01Z"},
	}
	got := Build("t", entries, "")
	i1 := strings.Index(got, "Log 1. Agent A")
	i2 := strings.Index(got, "Log 2. Agent B")
	if i1 < 0 || i2 < 0 || i2 < i1 {
		t.Errorf("positions wrong in %q", got)
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	entries := []logstore.Entry{
		{Agent: "Devil", Content: "x", Timestamp: "2024-01-01T10:00:00Z"},
		{Agent: "Insight", Content: "y", Timestamp: "2024-01-01T10:01:00Z"},
	}
	Build("t", entries, "Insight")
	if entries[0].Agent != "Devil" || entries[1].Agent != "Insight" {
		t.Errorf("input mutated: %+v", entries)
	}
}
