package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefeed/internal/model"
)

// lineScenario puts a carnivore storage next to the depot and targets in a
// row along the x axis.
func lineScenario(n int, budget float64) model.Scenario {
	sc := model.Scenario{
		CruiseAltitude: 10,
		Depot:          model.Pt(0, 0, 0),
		RangeBudget:    budget,
		MaxTrips:       10,
		Sources:        []model.SupplySource{{Pos: model.Pt(0, 5, 0), Diet: model.Carnivore}},
	}
	for i := 1; i <= n; i++ {
		sc.Targets = append(sc.Targets, model.DeliveryTarget{Pos: model.Pt(float64(i)*50, 0, 0), Diet: model.Carnivore, Importance: 1})
	}
	return sc
}

func TestSegmenter_SplitRejectsUnanchored(t *testing.T) {
	sc := lineScenario(2, 500)
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	s := &Segmenter{Index: ix, Budget: sc.RangeBudget, MaxTrips: 5}

	_, err := s.Split(model.Route{Stops: []model.Stop{model.SourceStop(sc.Sources[0])}}, NewLedger())
	assert.ErrorIs(t, err, ErrRouteNotAnchored)
}

func TestSegmenter_SplitRespectsBudget(t *testing.T) {
	sc := lineScenario(6, 500)
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	l := NewLedger()
	master := (&GreedyPlanner{Index: ix}).PlanTrip(l, math.Inf(1))
	require.Len(t, master.TargetIDs(), 6)

	s := &Segmenter{Index: ix, Budget: sc.RangeBudget, MaxTrips: 10}
	trips, err := s.Split(master, l)
	require.NoError(t, err)
	require.Greater(t, len(trips), 1)

	var served []model.TargetID
	for _, r := range trips {
		require.NoError(t, ValidateRoute(r, ix, sc.RangeBudget))
		assert.Equal(t, model.StopSource, r.Stops[1].Kind, "every trip restocks first")
		served = append(served, r.TargetIDs()...)
	}
	assert.Len(t, served, 4, "targets beyond 200 are out of range of a 500 budget")
	assert.Zero(t, l.Len(), "split does not commit")
}

func TestSegmenter_SplitHonorsMaxTrips(t *testing.T) {
	sc := lineScenario(4, 300)
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	master := (&GreedyPlanner{Index: ix}).PlanTrip(NewLedger(), math.Inf(1))
	s := &Segmenter{Index: ix, Budget: sc.RangeBudget, MaxTrips: 1}
	trips, err := s.Split(master, NewLedger())
	require.NoError(t, err)
	assert.Len(t, trips, 1)
}

func TestSegmenter_RunStopsWithoutProgress(t *testing.T) {
	sc := lineScenario(3, 1e6)
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	l := NewLedger()
	var events []TripEvent
	s := &Segmenter{Index: ix, Budget: sc.RangeBudget, MaxTrips: 10, OnTrip: func(e TripEvent) { events = append(events, e) }}
	trips := s.Run(&GreedyPlanner{Index: ix}, l)

	require.Len(t, trips, 1, "everything fits the first trip, the second plans nothing")
	assert.Equal(t, 3, l.Len())
	require.Len(t, events, 1)
	assert.Len(t, events[0].Credited, 3)
}

func TestCommit_CreditsOnlyCarriedDiet(t *testing.T) {
	sc := lineScenario(2, 1e6)
	sc.Targets[1].Diet = model.Herbivore
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	l := NewLedger()
	r := model.Route{Stops: []model.Stop{
		model.DepotStop(sc.Depot),
		model.TargetStop(0, sc.Targets[0]),
		model.SourceStop(sc.Sources[0]),
		model.TargetStop(1, sc.Targets[1]),
		model.TargetStop(0, sc.Targets[0]),
		model.TargetStop(0, sc.Targets[0]),
		model.DepotStop(sc.Depot),
	}}
	assert.Equal(t, []model.TargetID{0}, Commit(r, ix, sc.RangeBudget, l))
	assert.Empty(t, Commit(r, ix, sc.RangeBudget, l), "a second pass credits nothing new")
}

func TestSolve_SegmentedMatchesBudget(t *testing.T) {
	sc := lineScenario(6, 500)
	res, err := Solve(sc, Options{Strategy: StrategySegmented})
	require.NoError(t, err)
	assert.Len(t, res.Credited, 4)
	requireDeliveryRules(t, res)
}
