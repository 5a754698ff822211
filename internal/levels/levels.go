// Package levels is the catalog of playable game scenarios.
package levels

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Level is one selectable scenario backed by a server-side config file.
type Level struct {
	ID            string `yaml:"id" json:"id"`
	Title         string `yaml:"title" json:"title"`
	Description   string `yaml:"description" json:"description"`
	Icon          string `yaml:"icon,omitempty" json:"icon,omitempty"`
	ConfigPath    string `yaml:"config_path" json:"config_path"`
	Difficulty    string `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	EstimatedTime string `yaml:"estimated_time,omitempty" json:"estimated_time,omitempty"`
}

// Catalog is an ordered set of levels.
type Catalog struct {
	Levels []Level `yaml:"levels"`
}

// Builtin returns the levels shipped with the client.
func Builtin() *Catalog {
	return &Catalog{Levels: []Level{
		{
			ID:            "police",
			Title:         "Criminal Investigation Unit",
			Description:   "Investigate a string of murders in Chaoyang City and follow the clues to the killer.",
			Icon:          "🕵️",
			ConfigPath:    "config/police.yaml",
			Difficulty:    "Medium",
			EstimatedTime: "15-20 min",
		},
		{
			ID:            "taoist",
			Title:         "Path of Cultivation",
			Description:   "Follow a Taoist master, gather the five elemental relics and refine your first elixir.",
			Icon:          "🧙",
			ConfigPath:    "config/taoist.yaml",
			Difficulty:    "Easy",
			EstimatedTime: "10-15 min",
		},
	}}
}

// LoadFile reads a YAML catalog. Every level needs an id and a config path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read levels: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse levels: %w", err)
	}
	if len(c.Levels) == 0 {
		return nil, fmt.Errorf("parse levels: catalog is empty")
	}
	seen := make(map[string]bool, len(c.Levels))
	for i, l := range c.Levels {
		if l.ID == "" || l.ConfigPath == "" {
			return nil, fmt.Errorf("parse levels: entry %d needs id and config_path", i)
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("parse levels: duplicate id %q", l.ID)
		}
		seen[l.ID] = true
	}
	return &c, nil
}

// Load returns the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}

// Find looks up a level by id.
func (c *Catalog) Find(id string) (Level, bool) {
	for _, l := range c.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}
