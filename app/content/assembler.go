package content

import (
	"regexp"
	"strings"
)

// Builder merges text blocks into one bounded string. It keeps a running
// remaining budget seeded at the configured maximum content length; each
// appended block is truncated to fit, and once the budget is exhausted
// further blocks are skipped outright.
type Builder struct {
	remaining int
	parts     []string
}

func NewBuilder(maxLen int) *Builder {
	return &Builder{remaining: maxLen}
}

// Append adds a block of text, truncated to the remaining budget. It
// reports whether any text was taken.
func (b *Builder) Append(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || b.remaining <= 0 {
		return false
	}

	truncated := Truncate(text, b.remaining)
	if truncated == "" {
		return false
	}

	b.parts = append(b.parts, truncated)
	b.remaining -= len([]rune(truncated))
	return true
}

// Remaining returns the unused portion of the budget.
func (b *Builder) Remaining() int {
	return b.remaining
}

// String merges all appended blocks and normalizes whitespace once, after
// merging, so partial per-block normalization artifacts cannot compound.
func (b *Builder) String() string {
	return NormalizeWhitespace(strings.Join(b.parts, "\n"))
}

// Sentence terminators considered when looking for a cut point. CJK
// terminators are included because source sites publish Chinese prose.
const sentenceTerminators = ".!?。！？；"

// Truncate cuts s to at most maxLen runes, preferring the last sentence
// terminator within the budget and falling back to a hard cut. Strings
// already within the budget are returned unchanged, which makes the
// operation idempotent.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	cut := runes[:maxLen]
	for i := len(cut) - 1; i >= 0; i-- {
		if strings.ContainsRune(sentenceTerminators, cut[i]) {
			return string(cut[:i+1])
		}
	}

	return string(cut)
}

var (
	spaceRunRe   = regexp.MustCompile(`[ \t\x{3000}]+`)
	newlineRunRe = regexp.MustCompile(`\s*\n\s*`)
)

// NormalizeWhitespace collapses runs of spaces to a single space and runs
// of newlines (with surrounding spaces) to a single newline.
func NormalizeWhitespace(s string) string {
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = newlineRunRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
