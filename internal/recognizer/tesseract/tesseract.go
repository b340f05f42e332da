//go:build tesseract

// Package tesseract recognizes text in frame images with the Tesseract OCR
// engine. It needs libtesseract at build time: go build -tags tesseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/hejijunhao/khmerid/internal/model"
	"github.com/hejijunhao/khmerid/internal/recognizer"
)

// maxImageSize bounds the image bytes handed to Tesseract.
const maxImageSize = 20 * 1024 * 1024

var defaultLanguages = []string{"eng"}

func init() {
	recognizer.Register("tesseract", func(cfg recognizer.Config) (recognizer.Recognizer, error) {
		return New(cfg.Languages...), nil
	})
}

// Recognizer runs Tesseract on frame images. A gosseract client is not safe
// for concurrent use, so each call creates its own.
type Recognizer struct {
	languages []string
}

// New creates a Tesseract recognizer for the given languages (default "eng").
func New(languages ...string) *Recognizer {
	if len(languages) == 0 {
		languages = defaultLanguages
	}
	return &Recognizer{languages: languages}
}

// Recognize OCRs f.Image. Frames that already carry text are passed through.
func (r *Recognizer) Recognize(ctx context.Context, f model.Frame) (string, error) {
	if f.Text != "" {
		return f.Text, nil
	}
	if !f.HasImage() {
		return "", fmt.Errorf("tesseract: frame %d: %w", f.ID, recognizer.ErrNoText)
	}
	if len(f.Image) > maxImageSize {
		return "", fmt.Errorf("tesseract: frame %d: image too large (%d bytes)", f.ID, len(f.Image))
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return "", fmt.Errorf("tesseract: set language: %w", err)
	}
	if err := client.SetImageFromBytes(f.Image); err != nil {
		return "", fmt.Errorf("tesseract: frame %d: %w", f.ID, err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: frame %d: %w", f.ID, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("tesseract: frame %d: %w", f.ID, recognizer.ErrNoText)
	}
	return text, nil
}

func (r *Recognizer) Close() error {
	return nil
}
