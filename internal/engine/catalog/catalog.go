// Package catalog holds the ordered, immutable set of weighted text detectors
// used to recognize a Cambodian national ID card.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrEmptyCatalog  = errors.New("catalog: no detectors")
	ErrEmptyName     = errors.New("catalog: detector name is empty")
	ErrDuplicateName = errors.New("catalog: duplicate detector name")
	ErrInvalidWeight = errors.New("catalog: detector weight must be positive")
	ErrNilPattern    = errors.New("catalog: detector pattern is nil")
)

// Rule is a named detector. It matches when Pattern occurs anywhere in the
// normalized text and then contributes Weight points.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Weight  int
}

// Match reports whether the rule's pattern occurs in text.
func (r Rule) Match(text string) bool {
	return r.Pattern.MatchString(text)
}

// Catalog is an ordered set of rules. It is never mutated after New and is
// safe for concurrent use.
type Catalog struct {
	rules []Rule
}

// New validates rules and returns a catalog preserving their order.
func New(rules ...Rule) (*Catalog, error) {
	if len(rules) == 0 {
		return nil, ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(rules))
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("detector %d: %w", i, ErrEmptyName)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("detector %q: %w", r.Name, ErrDuplicateName)
		}
		if r.Weight <= 0 {
			return nil, fmt.Errorf("detector %q: %w (got %d)", r.Name, ErrInvalidWeight, r.Weight)
		}
		if r.Pattern == nil {
			return nil, fmt.Errorf("detector %q: %w", r.Name, ErrNilPattern)
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return &Catalog{rules: out}, nil
}

// Rules returns a copy of the rules in catalog order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Each calls fn for every rule in catalog order without copying.
func (c *Catalog) Each(fn func(Rule)) {
	for _, r := range c.rules {
		fn(r)
	}
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// MaxScore returns the score a text matching every rule would get.
func (c *Catalog) MaxScore() int {
	total := 0
	for _, r := range c.rules {
		total += r.Weight
	}
	return total
}

// Names returns the rule names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}
