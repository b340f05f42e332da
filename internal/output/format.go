package output

import (
	"strings"

	"github.com/hejijunhao/khmerid/internal/model"
)

// Verbosity controls how much diagnostic detail an event carries.
type Verbosity int

const (
	Minimal  Verbosity = iota // verdict only
	Standard                  // verdict, score and matched detectors
	Full                      // everything, including text length
)

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
// Unknown strings default to Standard.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal
	case "full":
		return Full
	default:
		return Standard
	}
}

// FormatEvent returns a copy of the event with fields stripped according to verbosity.
// At Minimal: Score, Matched and SourceLength are zeroed (omitted from JSON via omitempty).
// At Standard: SourceLength is zeroed.
// At Full: all fields preserved.
func FormatEvent(e model.VerdictEvent, verbosity Verbosity) model.VerdictEvent {
	switch verbosity {
	case Minimal:
		e.Score = 0
		e.Matched = nil
		e.SourceLength = 0
	case Standard:
		e.SourceLength = 0
	}
	return e
}
