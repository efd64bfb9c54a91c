package opt

import (
	"fmt"

	"dronefeed/internal/model"
)

// budgetTolerance absorbs rounding in long trips.
const budgetTolerance = 1e-6

// ValidateRoute checks that r starts and ends at the depot, fits the budget
// and, when the index carries zones, never touches one.
func ValidateRoute(r model.Route, ix *Index, budget float64) error {
	if !r.Anchored(ix.Depot()) {
		return ErrRouteNotAnchored
	}
	// A trip that never leaves the depot is always feasible.
	if d := ix.Cost().PathCost(r.Stops); r.NonDepotStops() > 0 && d > budget+budgetTolerance {
		return fmt.Errorf("%w: %.3f > %.3f", ErrOverBudget, d, budget)
	}
	for i := 1; i < len(r.Stops); i++ {
		a, b := r.Stops[i-1].Pos, r.Stops[i].Pos
		for _, z := range ix.Zones() {
			if z.Intersects(a, b) {
				return fmt.Errorf("%w: leg %d %s-%s, zone (%g,%g) r=%g", ErrZoneCrossing, i, a, b, z.X, z.Y, z.Radius)
			}
		}
	}
	return nil
}

// validateScenario rejects inputs no planner can work with.
func validateScenario(sc *model.Scenario) error {
	if sc.RangeBudget <= 0 {
		return fmt.Errorf("%w: range budget must be positive", ErrInvalidScenario)
	}
	if sc.MaxTrips < 1 {
		return fmt.Errorf("%w: max trips must be at least 1", ErrInvalidScenario)
	}
	if sc.CruiseAltitude < 0 {
		return fmt.Errorf("%w: cruise altitude must not be negative", ErrInvalidScenario)
	}
	for i, s := range sc.Sources {
		if !s.Diet.Valid() {
			return fmt.Errorf("%w: source %d has unknown diet %q", ErrInvalidScenario, i, s.Diet)
		}
	}
	for i, t := range sc.Targets {
		if !t.Diet.Valid() {
			return fmt.Errorf("%w: target %d has unknown diet %q", ErrInvalidScenario, i, t.Diet)
		}
		if t.Importance <= 0 {
			return fmt.Errorf("%w: target %d importance must be positive", ErrInvalidScenario, i)
		}
	}
	for i, z := range sc.Zones {
		if z.Radius < 0 {
			return fmt.Errorf("%w: zone %d has negative radius", ErrInvalidScenario, i)
		}
	}
	return nil
}
