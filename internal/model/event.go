package model

import "time"

// VerdictEvent is what the pipeline hands to an output for every forwarded verdict.
type VerdictEvent struct {
	Session      string    `json:"session"`
	FrameID      uint64    `json:"frame_id"`
	Source       string    `json:"source,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Valid        bool      `json:"valid"`
	Score        int       `json:"score,omitempty"`
	Matched      []string  `json:"matched,omitempty"`
	SourceLength int       `json:"source_length,omitempty"`
	Failed       bool      `json:"recognition_failed,omitempty"`
}
