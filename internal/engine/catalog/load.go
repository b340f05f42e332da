package catalog

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML form of a catalog.
type File struct {
	Detectors []FileDetector `yaml:"detectors"`
}

// FileDetector is one detector entry in a catalog file.
type FileDetector struct {
	Name       string `yaml:"name"`
	Pattern    string `yaml:"pattern"`
	Weight     int    `yaml:"weight"`
	IgnoreCase bool   `yaml:"ignore_case"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return c, nil
}

// Parse builds a catalog from YAML bytes. Detector order in the document is
// the catalog order.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	rules := make([]Rule, 0, len(f.Detectors))
	for _, d := range f.Detectors {
		expr := d.Pattern
		if d.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("catalog: detector %q: %w", d.Name, err)
		}
		rules = append(rules, Rule{Name: d.Name, Pattern: re, Weight: d.Weight})
	}
	return New(rules...)
}

// Marshal renders a catalog as YAML. Case-insensitivity stays inside the
// pattern as a (?i) flag.
func Marshal(c *Catalog) ([]byte, error) {
	f := File{Detectors: make([]FileDetector, 0, c.Len())}
	c.Each(func(r Rule) {
		f.Detectors = append(f.Detectors, FileDetector{
			Name:    r.Name,
			Pattern: r.Pattern.String(),
			Weight:  r.Weight,
		})
	})
	return yaml.Marshal(f)
}
