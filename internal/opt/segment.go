package opt

import (
	"fmt"
	"log/slog"

	"dronefeed/internal/model"
)

// PostProcessor rewrites a planned trip, e.g. to reorder stops or to detour
// around zones. It must keep the trip anchored and within budget.
type PostProcessor interface {
	Process(r model.Route, budget float64) model.Route
}

// TripEvent is emitted once per accepted trip.
type TripEvent struct {
	Index    int
	Route    model.Route
	Distance float64
	Credited []model.TargetID
}

// Segmenter turns planning output into range-feasible depot-to-depot trips.
type Segmenter struct {
	Index    *Index
	Budget   float64
	MaxTrips int
	Post     []PostProcessor
	OnTrip   func(TripEvent)
	Log      *slog.Logger
}

// Commit replays r through the vehicle state machine and credits every
// target reached while carrying its diet. It returns the newly credited ids.
func Commit(r model.Route, ix *Index, budget float64, l *Ledger) []model.TargetID {
	if len(r.Stops) == 0 {
		return nil
	}
	v := NewVehicle(ix.Depot(), budget, ix.Cost().Cost)
	var out []model.TargetID
	for _, s := range r.Stops[1:] {
		if v.Visit(s) && !l.Credited(s.Target) {
			if err := l.Credit(s.Target); err == nil {
				out = append(out, s.Target)
			}
		}
	}
	return out
}

func (s *Segmenter) postProcess(r model.Route) model.Route {
	for _, p := range s.Post {
		r = p.Process(r, s.Budget)
	}
	return r
}

// place post-processes and commits one trip, then reports it as trip index.
// A trip that credits nothing is dropped unless keepEmpty is set.
func (s *Segmenter) place(index int, r model.Route, l *Ledger, keepEmpty bool) (model.Route, bool) {
	r = s.postProcess(r)
	credited := Commit(r, s.Index, s.Budget, l)
	if len(credited) == 0 && !keepEmpty {
		return r, false
	}
	if s.OnTrip != nil {
		s.OnTrip(TripEvent{
			Index:    index,
			Route:    r,
			Distance: s.Index.Cost().PathCost(r.Stops),
			Credited: credited,
		})
	}
	return r, true
}

func (s *Segmenter) accept(trips []model.Route, r model.Route, l *Ledger) ([]model.Route, bool) {
	r, ok := s.place(len(trips), r, l, false)
	if !ok {
		return trips, false
	}
	return append(trips, r), true
}

// Run plans trips one after another against the shrinking set of uncredited
// targets. It stops after MaxTrips or as soon as a trip makes no progress.
func (s *Segmenter) Run(p TripPlanner, l *Ledger) []model.Route {
	var trips []model.Route
	for i := 0; i < s.maxTrips(); i++ {
		var ok bool
		trips, ok = s.accept(trips, p.PlanTrip(l, s.Budget), l)
		if !ok {
			logger(s.Log).Debug("trip made no progress, stopping", slog.Int("trip", i), slog.Int("credited", l.Len()))
			break
		}
	}
	return trips
}

// Split cuts a precomputed, unconstrained route into trips that each fit the
// budget. Credited and already-placed targets are skipped, as are targets
// whose diet is not on board. After a forced return the diet has to be
// picked up again, so the segmenter revisits the last source of that diet
// before continuing. The returned trips are not committed.
func (s *Segmenter) Split(r model.Route, l *Ledger) ([]model.Route, error) {
	ix := s.Index
	depot := ix.Depot()
	if !r.Anchored(depot) {
		return nil, fmt.Errorf("split: %w", ErrRouteNotAnchored)
	}

	var trips []model.Route
	placed := map[model.TargetID]bool{}
	lastSource := map[model.Diet]model.Stop{}
	cur := newTripBuilder(ix, s.Budget)

	stops := r.Stops[1 : len(r.Stops)-1]
	for i := 0; i < len(stops) && len(trips) < s.maxTrips(); {
		st := stops[i]
		switch st.Kind {
		case model.StopDepot:
			if cur.hasTargets() {
				trips = append(trips, cur.close())
			}
			cur = newTripBuilder(ix, s.Budget)
			i++
			continue
		case model.StopWaypoint:
			i++
			continue
		case model.StopSource:
			lastSource[st.Diet] = st
			if cur.v.Diet == st.Diet {
				i++
				continue
			}
			if cur.v.CanReserve(st.Pos) {
				cur.add(st)
				i++
				continue
			}
		case model.StopTarget:
			src, known := lastSource[st.Diet]
			if l.Credited(st.Target) || placed[st.Target] || (cur.v.Diet != st.Diet && !known) {
				i++
				continue
			}
			if cur.v.Diet == st.Diet {
				if cur.v.CanReserve(st.Pos) {
					cur.add(st)
					placed[st.Target] = true
					i++
					continue
				}
			} else if cur.v.CanReserveVia(src.Pos, st.Pos) {
				cur.add(src)
				cur.add(st)
				placed[st.Target] = true
				i++
				continue
			}
		}

		// st does not fit in the current trip.
		switch {
		case cur.hasTargets():
			trips = append(trips, cur.close())
			cur = newTripBuilder(ix, s.Budget)
		case !cur.fresh():
			cur = newTripBuilder(ix, s.Budget)
		default:
			logger(s.Log).Debug("stop unreachable within one trip, skipping",
				slog.String("kind", st.Kind.String()), slog.String("pos", st.Pos.String()))
			i++
		}
	}
	if cur.hasTargets() && len(trips) < s.maxTrips() {
		trips = append(trips, cur.close())
	}
	return trips, nil
}

func (s *Segmenter) maxTrips() int {
	if s.MaxTrips <= 0 {
		return 1
	}
	return s.MaxTrips
}

type tripBuilder struct {
	v     *Vehicle
	depot model.Point3
	stops []model.Stop
}

func newTripBuilder(ix *Index, budget float64) *tripBuilder {
	d := ix.Depot()
	return &tripBuilder{v: NewVehicle(d, budget, ix.Leg), depot: d, stops: []model.Stop{model.DepotStop(d)}}
}

func (b *tripBuilder) add(s model.Stop) {
	b.v.Visit(s)
	b.stops = append(b.stops, s)
}

func (b *tripBuilder) fresh() bool { return len(b.stops) == 1 }

func (b *tripBuilder) hasTargets() bool {
	for _, s := range b.stops {
		if s.Kind == model.StopTarget {
			return true
		}
	}
	return false
}

func (b *tripBuilder) close() model.Route {
	return model.Route{Stops: append(b.stops, model.DepotStop(b.depot))}
}
