package classifier

import (
	"time"

	"github.com/hejijunhao/khmerid/internal/model"
)

// DefaultThreshold is the minimum score for a text to count as an ID card.
const DefaultThreshold = 4

// Classifier turns a score into a verdict using a fixed threshold.
type Classifier struct {
	Threshold int
}

// New creates a Classifier with the given score threshold.
func New(threshold int) *Classifier {
	return &Classifier{Threshold: threshold}
}

// Classify marks the result valid when its total reaches the threshold.
// Score and matched names are carried through for diagnostics.
func (c *Classifier) Classify(r model.ScoreResult, observedAt time.Time) model.Verdict {
	return model.Verdict{
		Valid:        r.Total >= c.Threshold,
		Score:        r.Total,
		Matched:      r.Matched,
		SourceLength: r.SourceLength,
		ObservedAt:   observedAt,
	}
}

// Reject builds the explicit negative verdict used when no text could be
// recognized for a frame.
func Reject(observedAt time.Time) model.Verdict {
	return model.Verdict{ObservedAt: observedAt}
}
