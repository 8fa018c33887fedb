package extraction

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// yTolerance is the vertical distance (in PDF units) within which two text
// fragments are considered part of the same line.
const yTolerance = 4.0

// layoutStrategy reconstructs reading order from fragment positions. It
// groups fragments into lines by rounded vertical coordinate, sorts
// fragments left to right within a line and lines top to bottom, which
// recovers natural order across multi-column and table-heavy layouts where
// the raw text layer interleaves.
type layoutStrategy struct {
	logger *slog.Logger
}

func (s *layoutStrategy) Name() Method { return MethodLayout }

func (s *layoutStrategy) Extract(ctx context.Context, doc []byte) Candidate {
	reader, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return Candidate{Err: fmt.Errorf("failed to create PDF reader: %w", err)}
	}

	totalPage := reader.NumPage()
	var pages []Page
	var sb strings.Builder

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return Candidate{Err: err}
		}

		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		fragments := make([]Fragment, 0, len(content.Text))
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			fragments = append(fragments, Fragment{Text: t.S, X: t.X, Y: t.Y})
		}

		width, height := mediaBoxSize(page)
		p := Page{
			Number: pageIndex,
			Width:  width,
			Height: height,
			Lines:  groupLines(fragments),
		}
		pages = append(pages, p)

		for _, line := range p.Lines {
			sb.WriteString(line.Text)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	s.logger.Debug("Layout reconstruction complete",
		slog.Int("total_pages", totalPage),
		slog.Int("text_length", sb.Len()))

	return Candidate{Text: strings.TrimRight(sb.String(), "\n") + "\n", Pages: pages}
}

// groupLines buckets fragments into lines by vertical position, then orders
// fragments within a line left to right and lines top to bottom (PDF Y
// grows upward, so top-down means descending Y).
func groupLines(fragments []Fragment) []Line {
	if len(fragments) == 0 {
		return nil
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Y > fragments[j].Y
	})

	var lines []Line
	for _, f := range fragments {
		if len(lines) > 0 && lines[len(lines)-1].Y-f.Y <= yTolerance {
			last := &lines[len(lines)-1]
			last.Fragments = append(last.Fragments, f)
			continue
		}
		lines = append(lines, Line{Y: f.Y, Fragments: []Fragment{f}})
	}

	for i := range lines {
		line := &lines[i]
		sort.SliceStable(line.Fragments, func(a, b int) bool {
			return line.Fragments[a].X < line.Fragments[b].X
		})
		parts := make([]string, 0, len(line.Fragments))
		for _, f := range line.Fragments {
			parts = append(parts, f.Text)
		}
		line.Text = strings.Join(parts, " ")
	}

	return lines
}

func mediaBoxSize(page pdf.Page) (float64, float64) {
	mb := page.V.Key("MediaBox")
	if mb.IsNull() || mb.Len() != 4 {
		return 0, 0
	}
	width := mb.Index(2).Float64() - mb.Index(0).Float64()
	height := mb.Index(3).Float64() - mb.Index(1).Float64()
	return width, height
}
