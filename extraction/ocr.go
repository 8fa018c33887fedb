package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/semaphore"
)

// OcrEngine recognizes text in a single raster image. Implementations wrap
// an external engine (see the ocr package).
type OcrEngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// maxImageWorkers caps concurrent image recognition to bound memory while
// rasterized pages are in flight.
const maxImageWorkers = 2

// ocrStrategy pulls embedded images out of the PDF and runs each through
// the OCR engine, reassembling page order afterwards. Output is not
// guaranteed byte-identical across engine versions, so idempotence claims
// apply to the text strategies only.
type ocrStrategy struct {
	logger     *slog.Logger
	engine     OcrEngine
	lastResort bool
}

func (s *ocrStrategy) Name() Method { return MethodOCR }

func (s *ocrStrategy) LastResort() bool { return s.lastResort }

func (s *ocrStrategy) Extract(ctx context.Context, doc []byte) Candidate {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(doc), conf)
	if err != nil {
		return Candidate{Err: fmt.Errorf("failed to open PDF for OCR: %w", err)}
	}

	type pageImage struct {
		pageNr int
		data   []byte
	}

	var images []pageImage
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		extracted, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
		if err != nil {
			s.logger.Warn("Failed to extract images from page",
				slog.Int("page_number", pageNr),
				slog.String("error", err.Error()))
			continue
		}
		for _, img := range extracted {
			data, err := io.ReadAll(img)
			if err != nil || len(data) == 0 {
				continue
			}
			images = append(images, pageImage{pageNr: pageNr, data: data})
		}
	}

	if len(images) == 0 {
		return Candidate{Err: fmt.Errorf("no images found for OCR in %d pages", pdfCtx.PageCount)}
	}

	type pageText struct {
		pageNr int
		text   string
	}

	sem := semaphore.NewWeighted(maxImageWorkers)
	results := make([]pageText, len(images))
	var wg sync.WaitGroup

	for i, img := range images {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, img pageImage) {
			defer wg.Done()
			defer sem.Release(1)

			text, err := s.engine.Recognize(ctx, img.data)
			if err != nil {
				s.logger.Warn("OCR recognition failed for image",
					slog.Int("page_number", img.pageNr),
					slog.String("error", err.Error()))
				return
			}
			results[i] = pageText{pageNr: img.pageNr, text: text}
		}(i, img)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Candidate{Err: err}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].pageNr < results[b].pageNr
	})

	var sb strings.Builder
	for _, r := range results {
		if strings.TrimSpace(r.text) == "" {
			continue
		}
		sb.WriteString(strings.TrimSpace(r.text))
		sb.WriteString("\n\n")
	}

	return Candidate{Text: strings.TrimSpace(sb.String())}
}
