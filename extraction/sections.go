package extraction

import (
	"regexp"
	"strings"
)

var headingPatterns = []*regexp.Regexp{
	// 1. / 1.2 / 3) numbered headings
	regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`),
	// A. / B) lettered headings
	regexp.MustCompile(`^[A-Z][.)]\s+\S`),
	// ARTICLE IV, SECTION 2 style
	regexp.MustCompile(`^(ARTICLE|SECTION|PART|CHAPTER|ANNEX|APPENDIX)\b`),
}

const (
	minHeadingLen = 5
	maxHeadingLen = 100
)

// DetectSections splits text into titled sections. A line starts a section
// when it matches a numbered/lettered heading pattern, or when it is short
// and preceded by a blank line without ending in sentence punctuation.
// Content accumulates until the next heading.
func DetectSections(text string) []Section {
	lines := strings.Split(text, "\n")

	var sections []Section
	var current *Section
	prevBlank := true

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			prevBlank = true
			if current != nil {
				current.Content += "\n"
			}
			continue
		}

		if isHeading(line, prevBlank) {
			if current != nil {
				current.Content = strings.TrimSpace(current.Content)
				sections = append(sections, *current)
			}
			current = &Section{Title: line}
		} else if current != nil {
			if current.Content != "" && !strings.HasSuffix(current.Content, "\n") {
				current.Content += " "
			}
			current.Content += line
		}
		prevBlank = false
	}

	if current != nil {
		current.Content = strings.TrimSpace(current.Content)
		sections = append(sections, *current)
	}

	return sections
}

func isHeading(line string, prevBlank bool) bool {
	if len(line) > maxHeadingLen {
		return false
	}
	for _, pat := range headingPatterns {
		if pat.MatchString(line) {
			return true
		}
	}
	if !prevBlank || len(line) < minHeadingLen {
		return false
	}
	// Short standalone line after a gap, not ending like a sentence.
	return !strings.ContainsAny(string(line[len(line)-1]), ".,;!?")
}
