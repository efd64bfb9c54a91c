package model

// StopKind discriminates the Stop variant.
type StopKind uint8

const (
	StopDepot StopKind = iota + 1
	StopSource
	StopTarget
	StopWaypoint
)

func (k StopKind) String() string {
	switch k {
	case StopDepot:
		return "depot"
	case StopSource:
		return "source"
	case StopTarget:
		return "target"
	case StopWaypoint:
		return "waypoint"
	}
	return "unknown"
}

// Stop is one point on a route. Diet is set for sources and targets; Target
// and Importance only for targets.
type Stop struct {
	Kind       StopKind
	Pos        Point3
	Diet       Diet
	Target     TargetID
	Importance float64
}

func DepotStop(p Point3) Stop { return Stop{Kind: StopDepot, Pos: p} }

func SourceStop(s SupplySource) Stop { return Stop{Kind: StopSource, Pos: s.Pos, Diet: s.Diet} }

func TargetStop(id TargetID, t DeliveryTarget) Stop {
	return Stop{Kind: StopTarget, Pos: t.Pos, Diet: t.Diet, Target: id, Importance: t.Importance}
}

// WaypointStop is a detour point inserted around an exclusion zone.
func WaypointStop(p Point3) Stop { return Stop{Kind: StopWaypoint, Pos: p} }

// Route is one depot-to-depot trip.
type Route struct {
	Stops []Stop
}

// Anchored reports whether the route starts and ends at depot.
func (r Route) Anchored(depot Point3) bool {
	n := len(r.Stops)
	if n < 2 {
		return false
	}
	first, last := r.Stops[0], r.Stops[n-1]
	return first.Kind == StopDepot && last.Kind == StopDepot && first.Pos == depot && last.Pos == depot
}

// TargetIDs lists the targets visited, in order.
func (r Route) TargetIDs() []TargetID {
	var out []TargetID
	for _, s := range r.Stops {
		if s.Kind == StopTarget {
			out = append(out, s.Target)
		}
	}
	return out
}

// NonDepotStops counts every stop that is not the depot.
func (r Route) NonDepotStops() int {
	n := 0
	for _, s := range r.Stops {
		if s.Kind != StopDepot {
			n++
		}
	}
	return n
}

// XY projects the route onto the ground plane.
func (r Route) XY() [][2]float64 {
	out := make([][2]float64, len(r.Stops))
	for i, s := range r.Stops {
		out[i] = s.Pos.XY()
	}
	return out
}

// Clone returns a route with its own stop slice.
func (r Route) Clone() Route {
	return Route{Stops: append([]Stop(nil), r.Stops...)}
}
