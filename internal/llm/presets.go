package llm

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresets []byte

type Preset struct {
	Name        string `yaml:"name" json:"name"`
	Label       string `yaml:"label" json:"label"`
	Instruction string `yaml:"instruction" json:"instruction"`
}

// Presets is a read-only catalogue of named refine instructions.
type Presets struct {
	list   []Preset
	byName map[string]Preset
}

func ParsePresets(data []byte) (*Presets, error) {
	var doc struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	p := &Presets{byName: make(map[string]Preset, len(doc.Presets))}
	for _, preset := range doc.Presets {
		if preset.Name == "" || preset.Instruction == "" {
			return nil, fmt.Errorf("parse presets: preset %q needs a name and an instruction", preset.Name)
		}
		if _, dup := p.byName[preset.Name]; dup {
			return nil, fmt.Errorf("parse presets: duplicate preset %q", preset.Name)
		}
		p.byName[preset.Name] = preset
		p.list = append(p.list, preset)
	}
	return p, nil
}

// DefaultPresets returns the catalogue compiled into the binary.
func DefaultPresets() *Presets {
	p, err := ParsePresets(defaultPresets)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Presets) Lookup(name string) (Preset, bool) {
	preset, ok := p.byName[name]
	return preset, ok
}

func (p *Presets) List() []Preset {
	out := make([]Preset, len(p.list))
	copy(out, p.list)
	return out
}
