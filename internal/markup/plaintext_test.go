package markup

import "testing"

func TestToSpeech(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text untouched", "Just a sentence.", "Just a sentence."},
		{"header stripped", "## Key points\nFirst point.", "Key points\nFirst point."},
		{"bold stripped", "This is **very** important.", "This is very important."},
		{"double underscore bold", "This is __very__ important.", "This is very important."},
		{"italic stripped", "An *emphasized* word.", "An emphasized word."},
		{"strikethrough stripped", "It was ~~wrong~~ fine.", "It was wrong fine."},
		{"link keeps label", "See [the report](https://example.com/r).", "See the report."},
		{"inline code unwrapped", "Run `go test` locally.", "Run go test locally."},
		{"code fence unwrapped", "```go\nx := 1\n```", "x := 1"},
		{"bullets removed", "- first\n- second", "first\nsecond"},
		{"horizontal rule removed", "above\n---\nbelow", "above\n\nbelow"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToSpeech(tc.in); got != tc.want {
				t.Errorf("ToSpeech(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
