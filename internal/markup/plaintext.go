// Package markup cleans model output before it reaches the synthesis
// engine. Generated replies often arrive as markdown; spoken audio
// should not read asterisks and pound signs aloud.
package markup

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\n?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	headerRe     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	hrRe         = regexp.MustCompile(`(?m)^(?:---+|\*\*\*+|___+)\s*$`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	italicRe     = regexp.MustCompile(`\*([^*\n]+)\*|\b_([^_\n]+)_\b`)
	strikeRe     = regexp.MustCompile(`~~([^~]+)~~`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// ToSpeech strips markdown syntax from text, keeping the readable words.
func ToSpeech(text string) string {
	if text == "" {
		return text
	}

	result := codeFenceRe.ReplaceAllString(text, "$1")
	result = inlineCodeRe.ReplaceAllString(result, "$1")
	result = hrRe.ReplaceAllString(result, "")
	result = headerRe.ReplaceAllString(result, "")
	result = linkRe.ReplaceAllString(result, "$1")
	result = boldRe.ReplaceAllString(result, "$1$2")
	result = italicRe.ReplaceAllString(result, "$1$2")
	result = strikeRe.ReplaceAllString(result, "$1")
	result = bulletRe.ReplaceAllString(result, "")
	result = blankRunRe.ReplaceAllString(result, "\n\n")

	return strings.TrimSpace(result)
}
