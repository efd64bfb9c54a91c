package opt

import (
	"math"

	"dronefeed/internal/model"
)

// Phase is the coarse vehicle state within a trip.
type Phase uint8

const (
	AtDepot Phase = iota
	Carrying
)

func (p Phase) String() string {
	if p == Carrying {
		return "carrying"
	}
	return "at_depot"
}

// Vehicle is the transient per-trip state: where the drone is, what it
// carries and how much range is left.
//
// Transitions: a source switches the carried diet, a target with a matching
// diet is a delivery, the depot clears the load and restores full range.
// Waypoints only consume range.
type Vehicle struct {
	Pos       model.Point3
	Diet      model.Diet
	Remaining float64

	depot  model.Point3
	budget float64
	leg    LegFunc
}

// NewVehicle starts a trip at depot with full range. leg prices each move.
func NewVehicle(depot model.Point3, budget float64, leg LegFunc) *Vehicle {
	return &Vehicle{Pos: depot, Remaining: budget, depot: depot, budget: budget, leg: leg}
}

// Phase reports AtDepot until a source has been visited.
func (v *Vehicle) Phase() Phase {
	if v.Diet == "" {
		return AtDepot
	}
	return Carrying
}

// CanReserve reports whether moving to p still leaves range to get home.
func (v *Vehicle) CanReserve(p model.Point3) bool {
	return v.fits(v.leg(v.Pos, p) + v.leg(p, v.depot))
}

// CanReserveVia is CanReserve for the two-hop move through a then b.
func (v *Vehicle) CanReserveVia(a, b model.Point3) bool {
	return v.fits(v.leg(v.Pos, a) + v.leg(a, b) + v.leg(b, v.depot))
}

// fits rejects unpriceable moves even on an unlimited budget.
func (v *Vehicle) fits(c float64) bool {
	return !math.IsInf(c, 1) && c <= v.Remaining+eps
}

// Visit moves to s and applies its transition. It reports whether the visit
// delivers the carried diet to a target.
func (v *Vehicle) Visit(s model.Stop) bool {
	v.Remaining -= v.leg(v.Pos, s.Pos)
	v.Pos = s.Pos
	switch s.Kind {
	case model.StopDepot:
		v.Diet = ""
		v.Remaining = v.budget
	case model.StopSource:
		v.Diet = s.Diet
	case model.StopTarget:
		return v.Diet != "" && v.Diet == s.Diet
	case model.StopWaypoint:
	}
	return false
}
