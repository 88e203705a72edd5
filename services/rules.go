package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Rules drives the normalizer: which keys are UI noise to drop, and which
// key prefixes mark fields that hold a number buried in text. Both lists
// are hand-enumerated against the portal's current markup.
type Rules struct {
	DropKeys    []string `yaml:"drop_keys"`
	IntPrefixes []string `yaml:"int_prefixes"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() *Rules {
	return &Rules{
		DropKeys: []string{
			"share-ad-details",
			"info-plot",
			"image-gallery",
			"gallery-main",
			"object-details",
			"map-link",
			"pricing-details",
			"pricing-links",
			"pf-finance-link",
			"ownership-history-link",
			"price-statistics-link",
			"key-info",
			"hide-more-div",
			"hide-more-button",
			"show-more-button",
			"viewings",
			"about-property",
			"hide-entire-description",
			"show-entire-description",
			"useful-links",
			"viewings-notice",
			"viewing-sale-statement-button",
			"object-location",
			"object-info",
			"viewing-note-0",
			"viewings-note-0",
		},
		IntPrefixes: []string{
			"pricing",
			"info-construction",
			"info-usable",
			"info-rooms",
			"info-open",
			"info-floor",
			"info-bedrooms",
			"info-plot",
			"info-leasehold",
		},
	}
}

// LoadRules reads a YAML rule file. An empty path returns the defaults;
// lists left empty in the file also fall back to the defaults, so a file
// can override just one of them.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %q: %w", path, err)
	}

	rules := &Rules{}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("rules: parse %q: %w", path, err)
	}

	defaults := DefaultRules()
	if len(rules.DropKeys) == 0 {
		rules.DropKeys = defaults.DropKeys
	}
	if len(rules.IntPrefixes) == 0 {
		rules.IntPrefixes = defaults.IntPrefixes
	}
	return rules, nil
}
