package opt

import (
	"fmt"
	"sort"

	"dronefeed/internal/model"
)

// Preset bundles the parameters tuned for one competition level.
type Preset struct {
	Level       int      `json:"level" yaml:"level"`
	Name        string   `json:"name" yaml:"name"`
	RangeBudget float64  `json:"rangeBudget" yaml:"rangeBudget"`
	MaxTrips    int      `json:"maxTrips" yaml:"maxTrips"`
	Strategy    Strategy `json:"strategy" yaml:"strategy"`
	ClusterK    int      `json:"clusterK,omitempty" yaml:"clusterK,omitempty"`
}

var defaultPresets = []Preset{
	{Level: 1, Name: "single sortie", RangeBudget: 999999, MaxTrips: 1, Strategy: StrategyGreedy},
	{Level: 2, Name: "battery swaps", RangeBudget: 1125, MaxTrips: 11, Strategy: StrategyMulti},
	{Level: 3, Name: "dead zones", RangeBudget: 2750, MaxTrips: 51, Strategy: StrategyAvoid},
	{Level: 4, Name: "mega zoo", RangeBudget: 9250, MaxTrips: 251, Strategy: StrategyCluster, ClusterK: DefaultClusterK},
}

// DefaultPresets returns a copy of the built-in level presets.
func DefaultPresets() []Preset {
	return append([]Preset(nil), defaultPresets...)
}

// PresetFor looks up level in presets, falling back to the built-in table
// when presets is empty.
func PresetFor(level int, presets []Preset) (Preset, error) {
	if len(presets) == 0 {
		presets = defaultPresets
	}
	for _, p := range presets {
		if p.Level == level {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("level %d: %w", level, ErrUnknownLevel)
}

// Apply overrides the scenario limits and the planning strategy.
func (p Preset) Apply(sc *model.Scenario, o *Options) {
	if p.RangeBudget > 0 {
		sc.RangeBudget = p.RangeBudget
	}
	if p.MaxTrips > 0 {
		sc.MaxTrips = p.MaxTrips
	}
	if p.Strategy != "" {
		o.Strategy = p.Strategy
	}
	if p.ClusterK > 0 {
		o.ClusterK = p.ClusterK
	}
}

// SortPresets orders presets by level.
func SortPresets(ps []Preset) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Level < ps[j].Level })
}
