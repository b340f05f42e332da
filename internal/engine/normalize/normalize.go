// Package normalize canonicalizes recognized text before pattern matching.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize collapses every run of whitespace into a single space and trims
// the ends. The empty string normalizes to itself.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Fold applies Unicode compatibility folding (NFKC), turning full-width
// digits and letters into their ASCII forms so they match the detectors.
// It does not touch whitespace; run Normalize afterwards.
func Fold(raw string) string {
	return norm.NFKC.String(raw)
}
