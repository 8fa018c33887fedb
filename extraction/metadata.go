package extraction

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// lowTextCharsPerPage is the density below which a PDF with embedded images
// likely needs OCR.
const lowTextCharsPerPage = 50

func (c *Coordinator) probeMetadata(doc []byte, mimeType string, text string) Metadata {
	md := Metadata{}
	if normalizeMime(mimeType) == "application/pdf" {
		c.probePDF(doc, text, &md)
	}
	md.Language = c.detectLanguage(text)
	return md
}

func (c *Coordinator) probePDF(doc []byte, text string, md *Metadata) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(doc), conf)
	if err != nil {
		c.logger.Warn("PDF metadata probe failed",
			slog.String("error", err.Error()))
	} else {
		md.PageCount = ctx.PageCount
		hasImages := detectImageStreams(ctx)
		if md.PageCount > 0 {
			charsPerPage := float64(len([]rune(text))) / float64(md.PageCount)
			md.NeedsOCR = charsPerPage < lowTextCharsPerPage && hasImages
		}
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return
	}
	trailer := reader.Trailer()
	md.Encrypted = !trailer.Key("Encrypt").IsNull()
	if info := trailer.Key("Info"); !info.IsNull() {
		md.Producer = strings.TrimSpace(info.Key("Producer").Text())
	}
	if md.PageCount == 0 {
		md.PageCount = reader.NumPage()
	}
}

// detectImageStreams checks whether the PDF carries image XObjects.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
