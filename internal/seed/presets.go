package seed

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// LoadPresets parses a YAML document mapping preset names to Options.
func LoadPresets(raw []byte) (map[string]Options, error) {
	presets := map[string]Options{}
	if err := yaml.Unmarshal(raw, &presets); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for name, opts := range presets {
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return presets, nil
}

// Preset returns a built-in preset by name.
func Preset(name string) (Options, error) {
	presets, err := LoadPresets(builtinPresets)
	if err != nil {
		return Options{}, err
	}
	opts, ok := presets[name]
	if !ok {
		return Options{}, fmt.Errorf("unknown preset %q (available: %v)", name, presetNames(presets))
	}
	return opts, nil
}

func presetNames(presets map[string]Options) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
