package extraction

import (
	"fmt"
	"strings"
)

// Attempt records one strategy's outcome for diagnostics.
type Attempt struct {
	Method Method `json:"method"`
	Length int    `json:"length"`
	Reason string `json:"reason,omitempty"`
}

// FailedError is returned when no strategy produced usable text. It keeps
// the per-strategy attempt list so callers can see what was tried.
type FailedError struct {
	Attempts []Attempt
}

func (e *FailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Reason != "" {
			parts = append(parts, fmt.Sprintf("%s: %d chars (%s)", a.Method, a.Length, a.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %d chars", a.Method, a.Length))
		}
	}
	return "extraction failed, no strategy produced usable text: " + strings.Join(parts, "; ")
}
