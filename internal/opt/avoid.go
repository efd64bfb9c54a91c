package opt

import (
	"log/slog"
	"math"

	"dronefeed/internal/model"
)

const (
	DefaultSafetyMargin = 5.0
	DefaultMaxDetours   = 16
)

// Avoider reroutes flight legs around exclusion zones.
//
// A blocked leg gets a waypoint at radius+Margin from the offending zone's
// center, 90 degrees either side of the bearing from the center to the
// destination, whichever is closer to the destination. The two new legs are
// re-tested; a sub-leg still blocked by the same zone is split at the arc
// midpoint instead. MaxDetours caps the waypoints per leg.
type Avoider struct {
	Index      *Index
	Margin     float64
	MaxDetours int
	Log        *slog.Logger
	Stats      *Stats

	cache map[[2]model.Point3]float64
}

// NewAvoider returns an Avoider with default margin and detour cap.
func NewAvoider(ix *Index) *Avoider {
	return &Avoider{Index: ix, Margin: DefaultSafetyMargin, MaxDetours: DefaultMaxDetours}
}

// Process rebuilds r so that no leg crosses a zone and the trip stays within
// budget. Existing waypoints are discarded and regenerated. When a stop
// cannot be reached safely with enough range left to get home, the trip is
// cut there and flies straight back along the last verified return path.
func (a *Avoider) Process(r model.Route, budget float64) model.Route {
	ix := a.Index
	depot := ix.Depot()
	cost := ix.Cost()
	if len(r.Stops) == 0 {
		return r
	}

	out := []model.Stop{r.Stops[0]}
	pos := depot
	remaining := budget
	var home []model.Point3

	for _, st := range r.Stops[1:] {
		if st.Kind == model.StopDepot {
			break
		}
		if st.Kind == model.StopWaypoint {
			continue
		}
		leg, ok := a.SafeLeg(pos, st.Pos)
		if ok {
			back, ok := a.SafeLeg(st.Pos, depot)
			if ok {
				legCost := cost.PointsCost(chain(pos, leg, st.Pos))
				backCost := cost.PointsCost(chain(st.Pos, back, depot))
				if legCost+backCost <= remaining+eps {
					for _, wp := range leg {
						out = append(out, model.WaypointStop(wp))
					}
					out = append(out, st)
					remaining -= legCost
					pos = st.Pos
					home = back
					if a.Stats != nil {
						a.Stats.Detours += len(leg)
					}
					continue
				}
			}
		}
		logger(a.Log).Debug("truncating trip at unsafe stop",
			slog.String("kind", st.Kind.String()),
			slog.String("pos", st.Pos.String()),
			slog.Float64("remaining", remaining))
		if a.Stats != nil {
			a.Stats.Truncations++
		}
		break
	}

	for _, wp := range home {
		out = append(out, model.WaypointStop(wp))
	}
	out = append(out, model.DepotStop(depot))
	return model.Route{Stops: out}
}

// DetourCost prices the safe path from p to q, or +Inf when none exists.
// Results are memoized per Avoider.
func (a *Avoider) DetourCost(p, q model.Point3) float64 {
	if a.cache == nil {
		a.cache = map[[2]model.Point3]float64{}
	}
	k := [2]model.Point3{p, q}
	if c, ok := a.cache[k]; ok {
		return c
	}
	c := math.Inf(1)
	if wps, ok := a.SafeLeg(p, q); ok {
		c = a.Index.Cost().PointsCost(chain(p, wps, q))
	}
	a.cache[k] = c
	return c
}

// SafeLeg returns the waypoints needed to fly from p to q without touching a
// zone. ok is false when no such path was found within MaxDetours.
func (a *Avoider) SafeLeg(p, q model.Point3) (waypoints []model.Point3, ok bool) {
	left := a.MaxDetours
	if left <= 0 {
		left = DefaultMaxDetours
	}
	return a.detour(p, q, &left, nil)
}

func (a *Avoider) detour(p, q model.Point3, left *int, ring *model.ExclusionZone) ([]model.Point3, bool) {
	z, hit := a.blocking(p, q)
	if !hit {
		return nil, true
	}
	if *left <= 0 {
		return nil, false
	}
	*left--

	var wp model.Point3
	var ok bool
	if ring != nil && *ring == z {
		wp, ok = a.arcMidpoint(z, p, q)
	} else {
		wp, ok = a.tangentWaypoint(z, p, q)
	}
	if !ok {
		return nil, false
	}
	head, ok := a.detour(p, wp, left, &z)
	if !ok {
		return nil, false
	}
	tail, ok := a.detour(wp, q, left, &z)
	if !ok {
		return nil, false
	}
	out := append(head, wp)
	return append(out, tail...), true
}

// blocking returns the first zone hit along p-q.
func (a *Avoider) blocking(p, q model.Point3) (model.ExclusionZone, bool) {
	var best model.ExclusionZone
	bestT, found := 0.0, false
	for _, z := range a.Index.Zones() {
		if !z.Intersects(p, q) {
			continue
		}
		t := z.Along(p, q)
		if !found || t < bestT {
			best, bestT, found = z, t, true
		}
	}
	return best, found
}

func (a *Avoider) radius(z model.ExclusionZone) float64 {
	m := a.Margin
	if m <= 0 {
		m = DefaultSafetyMargin
	}
	return z.Radius + m
}

func (a *Avoider) onRing(z model.ExclusionZone, bearing float64) model.Point3 {
	r := a.radius(z)
	return model.Point3{
		X: z.X + r*math.Cos(bearing),
		Y: z.Y + r*math.Sin(bearing),
		Z: a.Index.Cost().Altitude,
	}
}

// tangentWaypoint picks between the two ring points perpendicular to the
// center-to-destination bearing. Ties go to the point closer to the origin,
// then to the counter-clockwise one.
func (a *Avoider) tangentWaypoint(z model.ExclusionZone, p, q model.Point3) (model.Point3, bool) {
	bearing := math.Atan2(q.Y-z.Y, q.X-z.X)
	cands := []model.Point3{
		a.onRing(z, bearing+math.Pi/2),
		a.onRing(z, bearing-math.Pi/2),
	}
	var best model.Point3
	found := false
	for _, c := range cands {
		if a.Index.inZone(c) {
			continue
		}
		if !found || closer(c, best, p, q) {
			best, found = c, true
		}
	}
	return best, found
}

func closer(c, best, p, q model.Point3) bool {
	dc, db := c.Dist2D(q), best.Dist2D(q)
	if math.Abs(dc-db) > 1e-9 {
		return dc < db
	}
	return c.Dist2D(p) < best.Dist2D(p)-1e-9
}

// arcMidpoint splits a leg that wraps around z at the angular midpoint of its
// endpoints, taking the shorter way round.
func (a *Avoider) arcMidpoint(z model.ExclusionZone, p, q model.Point3) (model.Point3, bool) {
	bp := math.Atan2(p.Y-z.Y, p.X-z.X)
	bq := math.Atan2(q.Y-z.Y, q.X-z.X)
	diff := math.Remainder(bq-bp, 2*math.Pi)
	wp := a.onRing(z, bp+diff/2)
	if a.Index.inZone(wp) || wp.Dist2D(p) < 1e-9 || wp.Dist2D(q) < 1e-9 {
		return model.Point3{}, false
	}
	return wp, true
}

func chain(p model.Point3, mid []model.Point3, q model.Point3) []model.Point3 {
	out := make([]model.Point3, 0, len(mid)+2)
	out = append(out, p)
	out = append(out, mid...)
	return append(out, q)
}
