package output

import (
	"context"

	"github.com/hejijunhao/khmerid/internal/model"
)

// Output defines the interface for verdict destinations.
// Implementations must be safe for concurrent Write calls.
type Output interface {
	Write(ctx context.Context, event model.VerdictEvent) error
	Close() error
}
