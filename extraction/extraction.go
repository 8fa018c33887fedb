// Package extraction turns raw document bytes into plain structured text.
//
// A coordinator tries ordered strategies (text-layer parse, position-aware
// layout reconstruction, OCR) against the document, validates each
// candidate, and returns the best text along with pages, tables, sections
// and document metadata.
package extraction

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Options controls strategy selection for one extraction run.
type Options struct {
	// UseOCR runs the OCR strategy alongside the text strategies instead of
	// keeping it as a last resort.
	UseOCR bool
	// AttemptAllMethods runs every strategy and picks the longest valid
	// candidate instead of stopping at the first valid one.
	AttemptAllMethods bool
	// DetectTables reconstructs page layout even when another strategy wins,
	// so tables and positioned lines are available downstream.
	DetectTables bool
}

// Candidate is one strategy's tagged output. Err is set when the strategy
// could not run at all; Verdict records content validation.
type Candidate struct {
	Method  Method
	Text    string
	Pages   []Page
	Verdict Verdict
	Err     error
}

// Strategy is one specific algorithm for turning document bytes into text.
type Strategy interface {
	Name() Method
	Extract(ctx context.Context, doc []byte) Candidate
}

// lastResortStrategy marks a strategy that only runs when nothing earlier
// in the order produced valid text.
type lastResortStrategy interface {
	LastResort() bool
}

type Coordinator struct {
	logger *slog.Logger
	ocr    OcrEngine

	detectorOnce sync.Once
	detector     lingua.LanguageDetector
}

// NewCoordinator builds a coordinator. ocr may be nil, in which case the
// OCR strategy is unavailable and skipped.
func NewCoordinator(logger *slog.Logger, ocr OcrEngine) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{logger: logger, ocr: ocr}
}

// Extract runs the strategies appropriate for mimeType in priority order
// and assembles the authoritative Result. It returns *FailedError when no
// strategy yields any non-empty text.
func (c *Coordinator) Extract(ctx context.Context, doc []byte, mimeType string, opts Options) (*Result, error) {
	strategies := c.strategiesFor(mimeType, opts)
	candidates, attempts := c.runStrategies(ctx, doc, strategies, opts)

	best, degraded := selectCandidate(candidates)
	if best == nil {
		return nil, &FailedError{Attempts: attempts}
	}

	result := &Result{
		Text:     best.Text,
		Method:   best.Method,
		Degraded: degraded,
	}

	result.Pages = c.structuralPages(ctx, doc, mimeType, opts, candidates)
	if opts.DetectTables {
		result.Tables = DetectTables(result.Pages)
	}
	result.Sections = DetectSections(result.Text)
	result.Metadata = c.probeMetadata(doc, mimeType, result.Text)

	c.logger.Info("Extraction complete",
		slog.String("method", string(result.Method)),
		slog.Int("text_length", len(result.Text)),
		slog.Int("pages", result.Metadata.PageCount),
		slog.Int("tables", len(result.Tables)),
		slog.Int("sections", len(result.Sections)),
		slog.Bool("degraded", result.Degraded))

	return result, nil
}

// runStrategies evaluates strategies in priority order, validating each
// candidate. With AttemptAllMethods unset the evaluation stops at the first
// valid candidate; last-resort strategies are skipped once one is in hand.
func (c *Coordinator) runStrategies(ctx context.Context, doc []byte, strategies []Strategy, opts Options) ([]Candidate, []Attempt) {
	var candidates []Candidate
	var attempts []Attempt
	haveValid := false

	for _, s := range strategies {
		if lr, ok := s.(lastResortStrategy); ok && lr.LastResort() && haveValid {
			continue
		}
		cand := s.Extract(ctx, doc)
		cand.Method = s.Name()
		if cand.Err != nil {
			c.logger.Warn("Extraction strategy failed",
				slog.String("method", string(cand.Method)),
				slog.String("error", cand.Err.Error()))
			attempts = append(attempts, Attempt{Method: cand.Method, Reason: cand.Err.Error()})
			continue
		}

		cand.Verdict = Validate(cand.Text)
		attempts = append(attempts, Attempt{
			Method: cand.Method,
			Length: len(cand.Text),
			Reason: cand.Verdict.Reason,
		})
		candidates = append(candidates, cand)
		if cand.Verdict.Valid {
			haveValid = true
		}

		c.logger.Debug("Extraction strategy produced candidate",
			slog.String("method", string(cand.Method)),
			slog.Int("text_length", len(cand.Text)),
			slog.Bool("valid", cand.Verdict.Valid))

		if !opts.AttemptAllMethods && cand.Verdict.Valid {
			break
		}
	}

	return candidates, attempts
}

func (c *Coordinator) strategiesFor(mimeType string, opts Options) []Strategy {
	switch normalizeMime(mimeType) {
	case "application/pdf":
		strategies := []Strategy{
			&textLayerStrategy{logger: c.logger},
			&layoutStrategy{logger: c.logger},
		}
		if c.ocr != nil && opts.UseOCR {
			strategies = append(strategies, &ocrStrategy{logger: c.logger, engine: c.ocr})
		} else if c.ocr != nil {
			// Last resort only.
			strategies = append(strategies, &ocrStrategy{logger: c.logger, engine: c.ocr, lastResort: true})
		}
		return strategies
	case "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text":
		return []Strategy{&convertStrategy{logger: c.logger, mimeType: normalizeMime(mimeType)}}
	case "text/html":
		return []Strategy{&htmlStrategy{logger: c.logger}}
	default:
		return []Strategy{&plainStrategy{}}
	}
}

// selectCandidate picks the longest valid candidate, or the longest
// non-empty one with the degraded flag when none validated.
func selectCandidate(candidates []Candidate) (*Candidate, bool) {
	var bestValid, bestAny *Candidate
	for i := range candidates {
		cand := &candidates[i]
		if strings.TrimSpace(cand.Text) == "" {
			continue
		}
		if bestAny == nil || len(cand.Text) > len(bestAny.Text) {
			bestAny = cand
		}
		if cand.Verdict.Valid && (bestValid == nil || len(cand.Text) > len(bestValid.Text)) {
			bestValid = cand
		}
	}
	if bestValid != nil {
		return bestValid, false
	}
	return bestAny, bestAny != nil
}

// structuralPages returns positioned pages for table detection, reusing the
// layout candidate when it already ran.
func (c *Coordinator) structuralPages(ctx context.Context, doc []byte, mimeType string, opts Options, candidates []Candidate) []Page {
	for i := range candidates {
		if candidates[i].Method == MethodLayout && len(candidates[i].Pages) > 0 {
			return candidates[i].Pages
		}
	}
	if !opts.DetectTables || normalizeMime(mimeType) != "application/pdf" {
		return nil
	}
	cand := (&layoutStrategy{logger: c.logger}).Extract(ctx, doc)
	if cand.Err != nil {
		return nil
	}
	return cand.Pages
}

func (c *Coordinator) detectLanguage(text string) string {
	c.detectorOnce.Do(func() {
		c.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.French, lingua.German, lingua.Spanish, lingua.Portuguese).
			Build()
	})
	sample := text
	if len(sample) > 2000 {
		sample = sample[:2000]
	}
	if lang, ok := c.detector.DetectLanguageOf(sample); ok {
		return strings.ToLower(lang.IsoCode639_1().String())
	}
	return ""
}

func normalizeMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// plainStrategy passes already-plain text through untouched.
type plainStrategy struct{}

func (p *plainStrategy) Name() Method { return MethodPlain }

func (p *plainStrategy) Extract(_ context.Context, doc []byte) Candidate {
	return Candidate{Method: MethodPlain, Text: string(doc)}
}
