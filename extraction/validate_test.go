package extraction

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantValid  bool
		wantReason string
	}{
		{
			name:      "normal sentence",
			text:      "The quick brown fox jumps over the lazy dog near the river.",
			wantValid: true,
		},
		{
			name:      "short but complete sentence",
			text:      "The quick brown fox jumps.",
			wantValid: true,
		},
		{
			name:       "two characters",
			text:       "ab",
			wantValid:  false,
			wantReason: "text too short",
		},
		{
			name:       "empty",
			text:       "",
			wantValid:  false,
			wantReason: "text too short",
		},
		{
			name:       "whitespace only",
			text:       "   \n\t   \n   ",
			wantValid:  false,
			wantReason: "text too short",
		},
		{
			name:       "symbol soup",
			text:       strings.Repeat("#@$%^&*", 10),
			wantValid:  false,
			wantReason: "no word-like tokens or punctuation",
		},
		{
			name:      "digits count as word tokens",
			text:      "0000000000000000000000000000",
			wantValid: true,
		},
		{
			name:      "punctuated short tokens",
			text:      "a. b. c. d. e. f. g. h. i. j. k. l.",
			wantValid: true,
		},
		{
			name:       "just under length threshold",
			text:       strings.Repeat("x", minTextLength-1),
			wantValid:  false,
			wantReason: "text too short",
		},
		{
			name:      "exactly at length threshold",
			text:      strings.Repeat("x", minTextLength),
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.text)
			if v.Valid != tt.wantValid {
				t.Errorf("Validate(%q).Valid = %v, want %v (reason %q)", tt.text, v.Valid, tt.wantValid, v.Reason)
			}
			if !tt.wantValid && v.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", v.Reason, tt.wantReason)
			}
		})
	}
}
