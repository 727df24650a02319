// Package preset loads the read-only named parameter bundle table:
// a global preset table, configuration loaded once and passed as an
// immutable context.
package preset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a named bundle of command-tag overrides, keyed the same way
// the control protocol's TLV tags are named. The control package applies
// a preset's fields to a channel when a PRESET tag names it.
type Preset struct {
	Name       string             `yaml:"name"`
	DemodType  string             `yaml:"demod_type,omitempty"`
	LowEdge    *float64           `yaml:"low_edge,omitempty"`
	HighEdge   *float64           `yaml:"high_edge,omitempty"`
	KaiserBeta *float64           `yaml:"kaiser_beta,omitempty"`
	SampleRate *float64           `yaml:"sample_rate,omitempty"`
	Channels   *int               `yaml:"channels,omitempty"`
	SquelchOpen  *float64         `yaml:"squelch_open,omitempty"`
	SquelchClose *float64         `yaml:"squelch_close,omitempty"`
	Extra      map[string]float64 `yaml:"extra,omitempty"`
}

// Table is the immutable preset dictionary, loaded once at startup and
// handed by reference to the control reader and workers;
// there is no process-global mutable state in the core.
type Table struct {
	byName map[string]Preset
}

// Load reads a YAML file of presets (a list under top-level key
// "presets") into a Table.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	var doc struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("preset: parse %s: %w", path, err)
	}
	t := &Table{byName: make(map[string]Preset, len(doc.Presets))}
	for _, p := range doc.Presets {
		t.byName[p.Name] = p
	}
	return t, nil
}

// Lookup returns a preset by name and whether it was found. Presets are
// read-only at runtime; callers must not mutate the returned value's
// pointer fields.
func (t *Table) Lookup(name string) (Preset, bool) {
	p, ok := t.byName[name]
	return p, ok
}
