package extraction

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textLayerStrategy reads the PDF's embedded text layer page by page. It is
// the cheapest strategy and wins for born-digital documents.
type textLayerStrategy struct {
	logger *slog.Logger
}

func (s *textLayerStrategy) Name() Method { return MethodTextLayer }

func (s *textLayerStrategy) Extract(ctx context.Context, doc []byte) Candidate {
	reader, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return Candidate{Err: fmt.Errorf("failed to create PDF reader: %w", err)}
	}

	totalPage := reader.NumPage()
	s.logger.Debug("Starting text-layer extraction",
		slog.Int("total_pages", totalPage))

	var sb strings.Builder
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return Candidate{Err: err}
		}

		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			s.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			s.logger.Warn("Failed to read text layer from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			continue
		}
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}
	}

	return Candidate{Text: sb.String()}
}
