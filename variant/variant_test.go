package variant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smoreau/docforge/llm_service"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "two sentences",
			text: "The supplier shall deliver goods on time. Payment is due within thirty days.",
			want: []string{
				"The supplier shall deliver goods on time.",
				"Payment is due within thirty days.",
			},
		},
		{
			name: "short fragments dropped",
			text: "Yes. No. The agreement may be terminated with written notice.",
			want: []string{"The agreement may be terminated with written notice."},
		},
		{
			name: "newlines treated as spaces",
			text: "The first clause spans\nmultiple lines here. The second clause stands alone.",
			want: []string{
				"The first clause spans multiple lines here.",
				"The second clause stands alone.",
			},
		},
		{
			name: "empty input",
			text: "   \n  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sentences %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		sentence string
		want     Classification
	}{
		{"The supplier shall deliver all goods by Friday.", Critical},
		{"Either party may terminate this agreement.", Critical},
		{"Liability is capped at the annual fee.", Critical},
		{"Payment is due within thirty days.", Important},
		{"Confidential information stays confidential.", Important},
		{"The offices are located in Lyon.", Standard},
	}

	for _, tt := range tests {
		if got := Classify(tt.sentence); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.sentence, got, tt.want)
		}
	}
}

func TestFromChunk_UsesLLMOutput(t *testing.T) {
	llm := &llm_service.MockLLMService{
		CallLLMFunc: func(_ context.Context, config map[string]interface{}, prompt string) (string, error) {
			if config["system_prompt"] == "" {
				t.Error("rewrite call should carry the system instruction")
			}
			return "REWRITTEN: " + prompt, nil
		},
	}

	g := NewGenerator(llm, nil, 1, nil)
	records := g.FromChunk(context.Background(), "The supplier shall deliver goods on time. Payment is due within thirty days.")

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if !strings.HasPrefix(rec.Output, "REWRITTEN: ") {
			t.Errorf("output %q should come from the rewrite call", rec.Output)
		}
		if rec.Input == "" || rec.Classification == "" {
			t.Errorf("record incomplete: %+v", rec)
		}
	}
	if records[0].Classification != string(Critical) {
		t.Errorf("first record classification = %s, want Critical", records[0].Classification)
	}
}

func TestFromChunk_FallsBackOnLLMError(t *testing.T) {
	llm := &llm_service.MockLLMService{
		CallLLMFunc: func(_ context.Context, _ map[string]interface{}, _ string) (string, error) {
			return "", errors.New("upstream unavailable")
		},
	}

	g := NewGenerator(llm, nil, 1, nil)
	records := g.FromChunk(context.Background(), "The supplier shall provide adequate notice before termination.")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Output == "" {
		t.Error("fallback should still produce a variant")
	}
}

func TestFromChunk_NilLLMUsesFallback(t *testing.T) {
	g := NewGenerator(nil, nil, 42, nil)
	records := g.FromChunk(context.Background(), "The parties agree to terminate the agreement upon breach.")

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Output == "" {
		t.Error("fallback output should be non-empty")
	}
}

func TestFallbackRewrite_Deterministic(t *testing.T) {
	sentence := "The agreement will terminate unless the parties provide sufficient notice."

	a := NewGenerator(nil, nil, 7, nil).fallbackRewrite(sentence)
	b := NewGenerator(nil, nil, 7, nil).fallbackRewrite(sentence)

	if a != b {
		t.Errorf("identically seeded fallbacks differ: %q vs %q", a, b)
	}
}

func TestFallbackRewrite_PreservesCase(t *testing.T) {
	g := NewGenerator(nil, nil, 0, nil)
	// Run enough trials that at least one substitution fires.
	replaced := false
	for i := 0; i < 50 && !replaced; i++ {
		out := g.fallbackRewrite("Terminate the agreement now, terminate it cleanly.")
		if strings.Contains(out, "End") {
			replaced = true
			if strings.Contains(out, "END") || strings.Contains(out, "eND") {
				t.Errorf("capitalization mangled: %q", out)
			}
		}
	}
	if !replaced {
		t.Error("expected at least one substitution across 50 trials")
	}
}
