// Package variant rewrites extracted clauses into a classified training
// dataset: each sentence gets a label and a paraphrased variant.
package variant

import (
	"context"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/smoreau/docforge/llm_service"
)

type Classification string

const (
	Critical  Classification = "Critical"
	Important Classification = "Important"
	Standard  Classification = "Standard"
)

// Record pairs an extracted sentence with its classification and rewritten
// variant.
type Record struct {
	Input          string `json:"input"`
	Classification string `json:"classification"`
	Output         string `json:"output"`
}

// minSentenceLen discards fragments too short to carry a full clause.
const minSentenceLen = 20

// rewriteInstruction is the fixed system instruction for the rewrite call.
const rewriteInstruction = "Rewrite the given sentence. Produce exactly one rewritten variant, no explanation."

type Generator struct {
	llm       llm_service.LLMService
	llmConfig map[string]interface{}
	logger    *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator wires the rewrite path. llm may be nil, in which case every
// sentence goes through the local fallback. The seed fixes the fallback's
// substitution choices.
func NewGenerator(llm llm_service.LLMService, llmConfig map[string]interface{}, seed int64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if llmConfig == nil {
		llmConfig = map[string]interface{}{}
	}
	cfg := make(map[string]interface{}, len(llmConfig)+1)
	for k, v := range llmConfig {
		cfg[k] = v
	}
	cfg["system_prompt"] = rewriteInstruction

	return &Generator{
		llm:       llm,
		llmConfig: cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// FromChunk splits chunk text into sentences, classifies each, and produces
// a rewritten variant per sentence. A failed rewrite call degrades to the
// local synonym fallback, so every kept sentence yields a record.
func (g *Generator) FromChunk(ctx context.Context, chunkText string) []Record {
	sentences := SplitSentences(chunkText)

	records := make([]Record, 0, len(sentences))
	for _, sentence := range sentences {
		label := Classify(sentence)

		output, err := g.rewrite(ctx, sentence)
		if err != nil {
			g.logger.Warn("Rewrite call failed, using local fallback",
				slog.String("error", err.Error()))
			output = g.fallbackRewrite(sentence)
		}

		records = append(records, Record{
			Input:          sentence,
			Classification: string(label),
			Output:         output,
		})
	}
	return records
}

func (g *Generator) rewrite(ctx context.Context, sentence string) (string, error) {
	if g.llm == nil {
		return g.fallbackRewrite(sentence), nil
	}
	out, err := g.llm.CallLLM(ctx, g.llmConfig, sentence)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return g.fallbackRewrite(sentence), nil
	}
	return out, nil
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)

// SplitSentences breaks text on terminal punctuation and drops fragments
// shorter than minSentenceLen characters.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil
	}

	raw := sentenceEndRe.Split(text, -1)
	var sentences []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		s = strings.TrimRight(s, ".!?")
		if len(s) < minSentenceLen {
			continue
		}
		sentences = append(sentences, s+".")
	}
	return sentences
}

var (
	criticalTerms  = []string{"shall", "must", "terminate", "termination", "liability", "indemnif", "breach", "penalty"}
	importantTerms = []string{"should", "payment", "notice", "deadline", "renewal", "confidential", "warranty"}
)

// Classify assigns a label by scanning for obligation-strength keywords.
func Classify(sentence string) Classification {
	lower := strings.ToLower(sentence)
	for _, term := range criticalTerms {
		if strings.Contains(lower, term) {
			return Critical
		}
	}
	for _, term := range importantTerms {
		if strings.Contains(lower, term) {
			return Important
		}
	}
	return Standard
}

// synonyms is the local fallback substitution table. Keys are matched as
// whole lowercase words.
var synonyms = map[string]string{
	"agreement":  "contract",
	"terminate":  "end",
	"provide":    "supply",
	"obligation": "duty",
	"purchase":   "buy",
	"commence":   "begin",
	"utilize":    "use",
	"request":    "ask for",
	"sufficient": "adequate",
	"prior":      "earlier",
	"notify":     "inform",
	"retain":     "keep",
}

var wordRe = regexp.MustCompile(`[A-Za-z]+`)

// fallbackRewrite applies synonym substitutions probabilistically so the
// pipeline still yields a distinct variant when the rewrite call is
// unavailable. Deterministic for a fixed seed.
func (g *Generator) fallbackRewrite(sentence string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return wordRe.ReplaceAllStringFunc(sentence, func(word string) string {
		replacement, ok := synonyms[strings.ToLower(word)]
		if !ok || g.rng.Float64() > 0.7 {
			return word
		}
		if word[0] >= 'A' && word[0] <= 'Z' {
			return strings.ToUpper(replacement[:1]) + replacement[1:]
		}
		return replacement
	})
}
