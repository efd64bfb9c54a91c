package opt

import (
	"dronefeed/internal/model"
)

// Index holds the scenario entities for one solve and answers nearest-by-diet
// queries. Lookups are linear scans ranked by CostModel distance.
type Index struct {
	cost    CostModel
	depot   model.Point3
	sources map[model.Diet][]model.SupplySource
	targets []model.DeliveryTarget
	byDiet  map[model.Diet][]model.TargetID
	zones   []model.ExclusionZone
	blocked map[model.TargetID]bool
	leg     LegFunc
}

// NewIndex builds an index over sc. When withZones is false the exclusion
// zones are ignored entirely.
func NewIndex(sc *model.Scenario, cost CostModel, withZones bool) *Index {
	ix := &Index{
		cost:    cost,
		depot:   sc.Depot,
		sources: map[model.Diet][]model.SupplySource{},
		targets: sc.Targets,
		byDiet:  map[model.Diet][]model.TargetID{},
		blocked: map[model.TargetID]bool{},
	}
	ix.leg = cost.Cost
	if withZones {
		ix.zones = sc.Zones
	}
	for _, s := range sc.Sources {
		if ix.inZone(s.Pos) {
			continue
		}
		ix.sources[s.Diet] = append(ix.sources[s.Diet], s)
	}
	for i, t := range sc.Targets {
		id := model.TargetID(i)
		if ix.inZone(t.Pos) {
			ix.blocked[id] = true
			continue
		}
		ix.byDiet[t.Diet] = append(ix.byDiet[t.Diet], id)
	}
	return ix
}

func (ix *Index) inZone(p model.Point3) bool {
	for _, z := range ix.zones {
		if z.Contains(p) {
			return true
		}
	}
	return false
}

func (ix *Index) Cost() CostModel { return ix.cost }
func (ix *Index) Depot() model.Point3 { return ix.depot }
func (ix *Index) Zones() []model.ExclusionZone { return ix.zones }
func (ix *Index) Target(id model.TargetID) model.DeliveryTarget { return ix.targets[id] }

// Leg prices a move for feasibility checks. It defaults to CostModel.Cost.
func (ix *Index) Leg(a, b model.Point3) float64 { return ix.leg(a, b) }

// SetLeg replaces the feasibility pricing, e.g. with detour-aware costs.
func (ix *Index) SetLeg(f LegFunc) { ix.leg = f }

// HasSource reports whether any reachable source provides d.
func (ix *Index) HasSource(d model.Diet) bool { return len(ix.sources[d]) > 0 }

// Reachable is false for targets sitting inside an exclusion zone.
func (ix *Index) Reachable(id model.TargetID) bool { return !ix.blocked[id] }

// Unreachable counts targets excluded because they sit inside a zone.
func (ix *Index) Unreachable() int { return len(ix.blocked) }

// NearestSource returns the source of diet d closest to p.
func (ix *Index) NearestSource(p model.Point3, d model.Diet) (model.SupplySource, bool) {
	var best model.SupplySource
	bestCost, found := 0.0, false
	for _, s := range ix.sources[d] {
		c := ix.cost.Cost(p, s.Pos)
		if !found || c < bestCost {
			best, bestCost, found = s, c, true
		}
	}
	return best, found
}

// NearestUncreditedTarget returns the reachable target of diet d closest to p
// that the ledger has not credited.
func (ix *Index) NearestUncreditedTarget(p model.Point3, d model.Diet, l *Ledger) (model.TargetID, bool) {
	var best model.TargetID
	bestCost, found := 0.0, false
	for _, id := range ix.byDiet[d] {
		if l.Credited(id) {
			continue
		}
		c := ix.cost.Cost(p, ix.targets[id].Pos)
		if !found || c < bestCost {
			best, bestCost, found = id, c, true
		}
	}
	return best, found
}

// Uncredited lists the reachable targets of diet d not yet credited, in id
// order.
func (ix *Index) Uncredited(d model.Diet, l *Ledger) []model.TargetID {
	var out []model.TargetID
	for _, id := range ix.byDiet[d] {
		if !l.Credited(id) {
			out = append(out, id)
		}
	}
	return out
}

// Pending counts reachable uncredited targets over all diets.
func (ix *Index) Pending(l *Ledger) int {
	n := 0
	for _, ids := range ix.byDiet {
		for _, id := range ids {
			if !l.Credited(id) {
				n++
			}
		}
	}
	return n
}
