package cards

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPreset is used when a game is created without a kingdom.
const DefaultPreset = "First Game"

//go:embed presets.yaml
var builtinPresets []byte

// PresetFile is the top-level YAML structure of a presets file.
type PresetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Preset is a named kingdom.
type Preset struct {
	Name  string   `yaml:"name"`
	Cards []string `yaml:"cards"`
}

// Presets holds kingdom presets by name.
type Presets map[string][]string

// BuiltinPresets returns the presets shipped with the server.
func BuiltinPresets() (Presets, error) {
	return ParsePresets(builtinPresets)
}

// LoadPresets reads a presets file from disk and merges it over the builtin set.
func LoadPresets(path string) (Presets, error) {
	presets, err := BuiltinPresets()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return presets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	extra, err := ParsePresets(data)
	if err != nil {
		return nil, err
	}
	for name, kingdom := range extra {
		presets[name] = kingdom
	}
	return presets, nil
}

// ParsePresets parses YAML preset data. Every preset must be a valid kingdom.
func ParsePresets(data []byte) (Presets, error) {
	var pf PresetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse presets YAML: %w", err)
	}
	presets := make(Presets, len(pf.Presets))
	for _, p := range pf.Presets {
		if err := ValidateKingdom(p.Cards); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		presets[p.Name] = append([]string(nil), p.Cards...)
	}
	return presets, nil
}

// Kingdom returns the named preset.
func (p Presets) Kingdom(name string) ([]string, error) {
	kingdom, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidKingdom, name)
	}
	return append([]string(nil), kingdom...), nil
}
