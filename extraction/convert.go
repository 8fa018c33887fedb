package extraction

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
)

// convertStrategy handles Word and OpenDocument inputs through docconv.
type convertStrategy struct {
	logger   *slog.Logger
	mimeType string
}

func (s *convertStrategy) Name() Method { return MethodConvert }

func (s *convertStrategy) Extract(_ context.Context, doc []byte) Candidate {
	s.logger.Debug("Starting document conversion",
		slog.String("mime_type", s.mimeType),
		slog.Int("data_size", len(doc)))

	result, err := docconv.Convert(bytes.NewReader(doc), s.mimeType, false)
	if err != nil {
		return Candidate{Err: fmt.Errorf("failed to convert document: %w", err)}
	}
	return Candidate{Text: result.Body}
}

var collapseSpaces = regexp.MustCompile(`[ \t]+`)

// htmlStrategy strips markup and returns visible text in document order.
type htmlStrategy struct {
	logger *slog.Logger
}

func (s *htmlStrategy) Name() Method { return MethodHTML }

func (s *htmlStrategy) Extract(_ context.Context, doc []byte) Candidate {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return Candidate{Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	gq.Find("script, style, noscript").Remove()

	var sb strings.Builder
	gq.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		sb.WriteString(collapseSpaces.ReplaceAllString(text, " "))
		sb.WriteString("\n\n")
	})

	text := strings.TrimSpace(sb.String())
	if text == "" {
		// Document without block structure, fall back to the whole body.
		text = strings.TrimSpace(collapseSpaces.ReplaceAllString(gq.Text(), " "))
	}

	return Candidate{Text: text}
}
