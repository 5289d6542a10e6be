package data

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// VirusStyleEntry is one drawing style for viruses.
type VirusStyleEntry struct {
	Name        string `yaml:"name"`
	Fill        string `yaml:"fill"`
	Stroke      string `yaml:"stroke"`
	StrokeWidth int    `yaml:"stroke_width"`
}

// VirusStyleTable holds the styles in file order.
type VirusStyleTable struct {
	styles []VirusStyleEntry
	byName map[string]*VirusStyleEntry
}

// LoadVirusStyleTable loads virus_styles.yaml.
func LoadVirusStyleTable(path string) (*VirusStyleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read virus styles: %w", err)
	}
	var entries []VirusStyleEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse virus styles: %w", err)
	}
	t := &VirusStyleTable{
		styles: make([]VirusStyleEntry, 0, len(entries)),
		byName: make(map[string]*VirusStyleEntry, len(entries)),
	}
	for i, e := range entries {
		if !hexColor.MatchString(e.Fill) || !hexColor.MatchString(e.Stroke) {
			return nil, fmt.Errorf("virus style %d (%s): colours must be #rrggbb", i, e.Name)
		}
		if e.StrokeWidth < 0 {
			return nil, fmt.Errorf("virus style %d (%s): negative stroke width", i, e.Name)
		}
		t.styles = append(t.styles, e)
	}
	for i := range t.styles {
		if n := t.styles[i].Name; n != "" {
			t.byName[n] = &t.styles[i]
		}
	}
	return t, nil
}

// Get returns a style by name, or nil.
func (t *VirusStyleTable) Get(name string) *VirusStyleEntry {
	return t.byName[name]
}

// All returns every style in file order.
func (t *VirusStyleTable) All() []VirusStyleEntry {
	return t.styles
}

// Count returns the total number of styles loaded.
func (t *VirusStyleTable) Count() int {
	return len(t.styles)
}
