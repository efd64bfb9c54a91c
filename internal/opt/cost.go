package opt

import (
	"math"

	"dronefeed/internal/model"
)

// eps absorbs float drift when comparing accumulated costs with a budget.
const eps = 1e-9

// LegFunc prices travel between two points.
type LegFunc func(a, b model.Point3) float64

// CostModel prices movement under the fixed cruise altitude rule: climb from
// a, fly level, descend to b.
type CostModel struct {
	Altitude float64
}

// Vertical is the climb or descent between p and cruise altitude.
func (c CostModel) Vertical(p model.Point3) float64 { return math.Abs(c.Altitude - p.Z) }

// Horizontal is the level flight distance.
func (c CostModel) Horizontal(a, b model.Point3) float64 { return a.Dist2D(b) }

// Cost is the full movement cost from a to b.
func (c CostModel) Cost(a, b model.Point3) float64 {
	return c.Vertical(a) + c.Vertical(b) + c.Horizontal(a, b)
}

// DepotCycle is the cost of a depot-to-depot reset: up to cruise altitude and
// straight back down.
func (c CostModel) DepotCycle(d model.Point3) float64 { return 2 * c.Vertical(d) }

// PathCost sums consecutive pairwise costs.
func (c CostModel) PathCost(stops []model.Stop) float64 {
	total := 0.0
	for i := 1; i < len(stops); i++ {
		total += c.Cost(stops[i-1].Pos, stops[i].Pos)
	}
	return total
}

// PointsCost is PathCost over bare points.
func (c CostModel) PointsCost(pts []model.Point3) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += c.Cost(pts[i-1], pts[i])
	}
	return total
}
