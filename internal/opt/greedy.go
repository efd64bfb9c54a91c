package opt

import (
	"log/slog"
	"math"
	"sort"

	"dronefeed/internal/model"
)

// TripPlanner builds one depot-to-depot trip against the targets the ledger
// has not credited. Planners never write to the ledger.
type TripPlanner interface {
	PlanTrip(l *Ledger, budget float64) model.Route
}

// GreedyPlanner serves diets in priority order and, within a diet, picks the
// target with the best importance per unit of distance that still leaves
// range to return home.
type GreedyPlanner struct {
	Index    *Index
	Priority []model.Diet
	Log      *slog.Logger
	Stats    *Stats
}

func (g *GreedyPlanner) PlanTrip(l *Ledger, budget float64) model.Route {
	ix := g.Index
	depot := ix.Depot()
	v := NewVehicle(depot, budget, ix.Leg)
	route := model.Route{Stops: []model.Stop{model.DepotStop(depot)}}
	taken := map[model.TargetID]bool{}

diets:
	for _, diet := range priorityOrDefault(g.Priority) {
		pending := openTargets(ix.Uncredited(diet, l), taken)
		if len(pending) == 0 {
			continue
		}
		src, ok := ix.NearestSource(v.Pos, diet)
		if !ok {
			logger(g.Log).Debug("no source for diet, skipping", slog.String("diet", string(diet)), slog.Int("targets", len(pending)))
			if g.Stats != nil {
				g.Stats.SkippedDiets++
			}
			continue
		}

		saved, mark := *v, len(route.Stops)
		if v.Diet != diet {
			if !v.CanReserve(src.Pos) {
				break diets
			}
			stop := model.SourceStop(src)
			v.Visit(stop)
			route.Stops = append(route.Stops, stop)
		}

		served := 0
		for {
			id, ok := g.pick(v, pending, taken)
			if !ok {
				break
			}
			stop := model.TargetStop(id, ix.Target(id))
			v.Visit(stop)
			route.Stops = append(route.Stops, stop)
			taken[id] = true
			served++
		}
		if served == 0 && len(route.Stops) > mark {
			*v = saved
			route.Stops = route.Stops[:mark]
		}
	}

	route.Stops = append(route.Stops, model.DepotStop(depot))
	return route
}

// pick ranks the open targets by importance / max(1, distance) and returns the
// best one the vehicle can still afford.
func (g *GreedyPlanner) pick(v *Vehicle, ids []model.TargetID, taken map[model.TargetID]bool) (model.TargetID, bool) {
	type ranked struct {
		id    model.TargetID
		score float64
	}
	cost := g.Index.Cost()
	cands := make([]ranked, 0, len(ids))
	for _, id := range ids {
		if taken[id] {
			continue
		}
		t := g.Index.Target(id)
		cands = append(cands, ranked{id: id, score: t.Importance / math.Max(1, cost.Cost(v.Pos, t.Pos))})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	for _, c := range cands {
		if v.CanReserve(g.Index.Target(c.id).Pos) {
			return c.id, true
		}
	}
	return 0, false
}

func openTargets(ids []model.TargetID, taken map[model.TargetID]bool) []model.TargetID {
	out := ids[:0:0]
	for _, id := range ids {
		if !taken[id] {
			out = append(out, id)
		}
	}
	return out
}

func priorityOrDefault(p []model.Diet) []model.Diet {
	if len(p) == 0 {
		return model.DietPriority
	}
	return p
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
