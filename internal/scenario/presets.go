package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dronefeed/internal/opt"
)

type presetFile struct {
	Presets []opt.Preset `yaml:"presets"`
}

// LoadPresets reads level presets from a YAML file of the form
//
//	presets:
//	  - level: 2
//	    rangeBudget: 1125
//	    maxTrips: 11
//	    strategy: multi
//
// Levels missing from the file keep their built-in values.
func LoadPresets(path string) ([]opt.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrMalformed)
	}
	merged := opt.DefaultPresets()
	for _, p := range f.Presets {
		if _, err := opt.ParseStrategy(string(p.Strategy)); err != nil {
			return nil, fmt.Errorf("%s: level %d: %w", path, p.Level, err)
		}
		replaced := false
		for i := range merged {
			if merged[i].Level == p.Level {
				merged[i] = p
				replaced = true
			}
		}
		if !replaced {
			merged = append(merged, p)
		}
	}
	opt.SortPresets(merged)
	return merged, nil
}
