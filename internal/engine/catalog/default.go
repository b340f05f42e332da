package catalog

import "regexp"

// Detector names of the default catalog.
const (
	IDNumber = "ID Number"
	MRZ      = "MRZ"
	Name     = "Name"
	KHM      = "KHM"
	Kingdom  = "Kingdom"
	Identity = "Identity"
	Nation   = "Nation"
)

// DefaultRules returns the built-in detector table for the Cambodian national
// ID card. The first four rules target the front of the card, the last three
// the back.
func DefaultRules() []Rule {
	return []Rule{
		{Name: IDNumber, Pattern: regexp.MustCompile(`\d{9}`), Weight: 2},
		{Name: MRZ, Pattern: regexp.MustCompile(`IDKHM\d{9}`), Weight: 3},
		{Name: Name, Pattern: regexp.MustCompile(`(?i)EN\s*SREYPHAL`), Weight: 2},
		{Name: KHM, Pattern: regexp.MustCompile(`(?i)\bKHM\b`), Weight: 1},

		{Name: Kingdom, Pattern: regexp.MustCompile(`(?i)KINGDOM\s*OF\s*CAMBODIA`), Weight: 2},
		{Name: Identity, Pattern: regexp.MustCompile(`(?i)(KHMER\s*IDENTITY\s*CARD|IDENTITY\s*CARD)`), Weight: 2},
		{Name: Nation, Pattern: regexp.MustCompile(`(?is)NATION.*RELIGION.*KING`), Weight: 2},
	}
}

var defaultCatalog = mustNew(DefaultRules())

// Default returns the shared built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

func mustNew(rules []Rule) *Catalog {
	c, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return c
}
