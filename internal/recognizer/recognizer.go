// Package recognizer defines the boundary to the OCR engine: frames in,
// recognized text out.
package recognizer

import (
	"context"
	"errors"

	"github.com/hejijunhao/khmerid/internal/model"
)

// ErrNoText is returned when a recognizer cannot produce text for a frame.
var ErrNoText = errors.New("recognizer: no text for frame")

// Recognizer turns a frame into recognized text. Implementations may be
// called from several goroutines at once.
type Recognizer interface {
	Recognize(ctx context.Context, f model.Frame) (string, error)
	Close() error
}

// Config holds recognizer settings.
type Config struct {
	Languages []string // OCR languages, e.g. "eng", "khm"
}
