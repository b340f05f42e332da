package khmerid

import "time"

// Result is the verdict for one frame of recognized text.
type Result struct {
	Valid      bool      `json:"valid"`
	Score      int       `json:"score"`
	Matched    []string  `json:"matched,omitempty"`   // detector names in catalog order
	TextLength int       `json:"text_length"`         // runes after normalization
	ObservedAt time.Time `json:"observed_at"`
	Session    string    `json:"session,omitempty"`
}

// Rule describes one detector in the active catalog.
type Rule struct {
	Name    string
	Pattern string
	Weight  int
}
