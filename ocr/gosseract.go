// Package ocr adapts the Tesseract engine to the extraction coordinator's
// OcrEngine interface.
package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

type TesseractEngine struct {
	logger    *slog.Logger
	languages []string
}

func NewTesseractEngine(logger *slog.Logger, languages ...string) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{logger: logger, languages: languages}
}

// Recognize runs one image through Tesseract. A fresh client per call keeps
// the engine safe under the extraction pool's concurrent workers.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR recognition failed: %w", err)
	}

	e.logger.Debug("OCR recognized image",
		slog.Int("image_bytes", len(image)),
		slog.Int("text_length", len(text)))

	return text, nil
}

// MockEngine is a test double with an overrideable func field.
type MockEngine struct {
	RecognizeFunc func(ctx context.Context, image []byte) (string, error)
}

func (m *MockEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, image)
	}
	return "mock ocr text", nil
}
