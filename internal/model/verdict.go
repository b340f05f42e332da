package model

import "time"

// ScoreResult is the outcome of running a detector catalog over normalized text.
type ScoreResult struct {
	Total        int      // sum of matched detector weights, never negative
	Matched      []string // matched detector names in catalog order
	SourceLength int      // rune count of the scored text
}

// Verdict is the classification of one frame's text at a point in time.
type Verdict struct {
	Valid        bool
	Score        int
	Matched      []string
	SourceLength int
	ObservedAt   time.Time
}
