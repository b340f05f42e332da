// Package text provides the pass-through recognizer for frames whose text
// was already recognized upstream.
package text

import (
	"context"
	"fmt"

	"github.com/hejijunhao/khmerid/internal/model"
	"github.com/hejijunhao/khmerid/internal/recognizer"
)

func init() {
	recognizer.Register("text", func(recognizer.Config) (recognizer.Recognizer, error) {
		return New(), nil
	})
}

// Recognizer returns the text already attached to a frame.
type Recognizer struct{}

// New creates a pass-through recognizer.
func New() *Recognizer {
	return &Recognizer{}
}

// Recognize returns f.Text. Frames that only carry an image cannot be read
// and fail with recognizer.ErrNoText.
func (r *Recognizer) Recognize(ctx context.Context, f model.Frame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Text == "" {
		return "", fmt.Errorf("text recognizer: frame %d: %w", f.ID, recognizer.ErrNoText)
	}
	return f.Text, nil
}

func (r *Recognizer) Close() error {
	return nil
}
