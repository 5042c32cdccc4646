package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesConfig is the authoring layer on top of a tileset descriptor: which
// labels are categories and which patterns their tiles answer to.
type RulesConfig struct {
	// Categories lists category names in palette order. When empty they are
	// derived from the descriptor labels.
	Categories []string `yaml:"categories"`
	// FallbackCategory names the category whose plain tile unspecified cells
	// draw as. It also substitutes for faulting cells.
	FallbackCategory string `yaml:"fallback_category"`
	// Patterns replaces the pattern implied by a label, keyed by label.
	Patterns map[string]string `yaml:"patterns"`
	// Aliases add extra patterns that reuse another label's tile.
	Aliases []AliasConfig `yaml:"aliases"`
	// Legend maps text map characters to category names.
	Legend map[string]string `yaml:"legend"`
	// Generator assigns categories to noise bands in ascending order.
	Generator []BandConfig `yaml:"generator"`
}

type AliasConfig struct {
	Label   string `yaml:"label"`
	Tile    string `yaml:"tile"` // label of the tile to reuse
	Pattern string `yaml:"pattern"`
}

type BandConfig struct {
	Category string  `yaml:"category"`
	Max      float64 `yaml:"max"`
}

// LoadRules reads a rules file
func LoadRules(filename string) (*RulesConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	var rc RulesConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse rules %s: %w", filename, err)
	}
	return &rc, nil
}

// MustLoadRules loads a rules file or panics.
func MustLoadRules(filename string) *RulesConfig {
	rc, err := LoadRules(filename)
	if err != nil {
		panic(err)
	}
	return rc
}
