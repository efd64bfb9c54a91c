package model

import (
	"fmt"
	"strings"
)

// Diet tags the food a storage provides and an enclosure requires.
type Diet string

const (
	Carnivore Diet = "c"
	Herbivore Diet = "h"
	Omnivore  Diet = "o"
)

// DietPriority is the fixed order in which diets are served.
var DietPriority = []Diet{Carnivore, Herbivore, Omnivore}

// ParseDiet accepts the single-letter tag or the full name.
func ParseDiet(s string) (Diet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "carnivore":
		return Carnivore, nil
	case "h", "herbivore":
		return Herbivore, nil
	case "o", "omnivore":
		return Omnivore, nil
	}
	return "", fmt.Errorf("unknown diet %q", s)
}

// Valid reports whether d is one of the known tags.
func (d Diet) Valid() bool {
	return d == Carnivore || d == Herbivore || d == Omnivore
}

// TargetID identifies a delivery target by its index in Scenario.Targets.
type TargetID int

// SupplySource is a food storage.
type SupplySource struct {
	Pos  Point3 `json:"pos" yaml:"pos"`
	Diet Diet   `json:"diet" yaml:"diet" validate:"oneof=c h o"`
}

// DeliveryTarget is an enclosure waiting for food.
type DeliveryTarget struct {
	Pos        Point3  `json:"pos" yaml:"pos"`
	Diet       Diet    `json:"diet" yaml:"diet" validate:"oneof=c h o"`
	Importance float64 `json:"importance" yaml:"importance" validate:"gt=0"`
}

// Scenario is one parsed problem instance. It is read-only during a solve.
type Scenario struct {
	Name           string           `json:"name,omitempty" yaml:"name,omitempty"`
	Bounds         Point3           `json:"bounds" yaml:"bounds"`
	CruiseAltitude float64          `json:"cruiseAltitude" yaml:"cruiseAltitude" validate:"gte=0"`
	Depot          Point3           `json:"depot" yaml:"depot"`
	RangeBudget    float64          `json:"rangeBudget" yaml:"rangeBudget" validate:"gt=0"`
	MaxTrips       int              `json:"maxTrips" yaml:"maxTrips" validate:"gte=1"`
	Sources        []SupplySource   `json:"sources" yaml:"sources" validate:"dive"`
	Targets        []DeliveryTarget `json:"targets" yaml:"targets" validate:"dive"`
	Zones          []ExclusionZone  `json:"zones,omitempty" yaml:"zones,omitempty" validate:"dive"`
}

// Target returns the target with the given id.
func (s *Scenario) Target(id TargetID) DeliveryTarget { return s.Targets[id] }

// TotalImportance sums the importance of the given targets.
func (s *Scenario) TotalImportance(ids []TargetID) float64 {
	total := 0.0
	for _, id := range ids {
		total += s.Targets[id].Importance
	}
	return total
}
