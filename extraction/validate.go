package extraction

import (
	"strings"
	"unicode"
)

const (
	// minTextLength rejects candidates too short to be a real document body.
	minTextLength = 25
	// minWordRunes is the alphanumeric run length that counts as a word-like
	// token.
	minWordRunes = 3
)

// Verdict is the tagged outcome of validating one extraction candidate.
type Verdict struct {
	Valid  bool
	Reason string
}

// Validate checks whether candidate text looks like usable document content:
// long enough, and showing either word-like tokens or ordinary
// punctuation/whitespace structure. Pure garbage (symbol soup, control
// bytes) fails both checks.
func Validate(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minTextLength {
		return Verdict{Reason: "text too short"}
	}
	if !hasWordTokens(trimmed) && !hasStructure(trimmed) {
		return Verdict{Reason: "no word-like tokens or punctuation"}
	}
	return Verdict{Valid: true}
}

func hasWordTokens(text string) bool {
	run := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			run++
			if run >= minWordRunes {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func hasStructure(text string) bool {
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			return true
		}
	}
	return false
}
