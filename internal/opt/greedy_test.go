package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefeed/internal/model"
)

func TestSolve_SingleDelivery(t *testing.T) {
	sc := feedingScenario()
	res, err := Solve(sc, Options{Strategy: StrategyGreedy})
	require.NoError(t, err)
	require.Len(t, res.Trips, 1)

	kinds := []model.StopKind{}
	for _, s := range res.Trips[0].Stops {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []model.StopKind{model.StopDepot, model.StopSource, model.StopTarget, model.StopDepot}, kinds)
	assert.Equal(t, []model.TargetID{0}, res.Credited)

	dist := 300 + math.Hypot(20, 20) + math.Hypot(10, 10) + math.Hypot(30, 10)
	assert.InDelta(t, dist, res.Distance, 1e-6)
	assert.InDelta(t, 2000-dist, res.Score, 1e-6)
}

func TestSolve_BudgetTooSmall(t *testing.T) {
	sc := feedingScenario()
	sc.RangeBudget = 300
	res, err := Solve(sc, Options{Strategy: StrategyGreedy})
	require.NoError(t, err)
	require.Len(t, res.Trips, 1)
	assert.Len(t, res.Trips[0].Stops, 2, "storage visit without delivery is rolled back")
	assert.Empty(t, res.Credited)
	assert.Zero(t, res.Importance)
}

func TestGreedy_DietPriorityAndRank(t *testing.T) {
	sc := model.Scenario{
		CruiseAltitude: 10,
		Depot:          model.Pt(0, 0, 0),
		RangeBudget:    1e6,
		MaxTrips:       1,
		Sources: []model.SupplySource{
			{Pos: model.Pt(10, 0, 0), Diet: model.Herbivore},
			{Pos: model.Pt(-10, 0, 0), Diet: model.Carnivore},
		},
		Targets: []model.DeliveryTarget{
			{Pos: model.Pt(20, 0, 0), Diet: model.Herbivore, Importance: 1},
			{Pos: model.Pt(-20, 0, 0), Diet: model.Carnivore, Importance: 1},
			{Pos: model.Pt(-200, 0, 0), Diet: model.Carnivore, Importance: 50},
		},
	}
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	g := &GreedyPlanner{Index: ix}
	r := g.PlanTrip(NewLedger(), sc.RangeBudget)

	require.True(t, r.Anchored(sc.Depot))
	assert.Equal(t, model.Carnivore, r.Stops[1].Diet, "carnivores are served first")
	// 50/210 beats 1/30 from the carnivore storage.
	assert.Equal(t, []model.TargetID{2, 1, 0}, r.TargetIDs())
}

func TestGreedy_SkipsDietWithoutSource(t *testing.T) {
	sc := feedingScenario()
	sc.Targets = append(sc.Targets, model.DeliveryTarget{Pos: model.Pt(60, 60, 0), Diet: model.Omnivore, Importance: 9})
	stats := &Stats{}
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	r := (&GreedyPlanner{Index: ix, Stats: stats}).PlanTrip(NewLedger(), sc.RangeBudget)
	assert.Equal(t, []model.TargetID{0}, r.TargetIDs())
	assert.Equal(t, 1, stats.SkippedDiets)
}

func TestGreedy_LeavesCreditedTargets(t *testing.T) {
	sc := feedingScenario()
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
	l := NewLedger()
	require.NoError(t, l.Credit(0))
	r := (&GreedyPlanner{Index: ix}).PlanTrip(l, sc.RangeBudget)
	assert.Len(t, r.Stops, 2)
}

func TestGreedy_RespectsReserve(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		sc := randomScenario(seed, 40, 0)
		ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, false)
		r := (&GreedyPlanner{Index: ix}).PlanTrip(NewLedger(), sc.RangeBudget)
		require.True(t, r.Anchored(sc.Depot))
		assert.LessOrEqual(t, ix.Cost().PathCost(r.Stops), sc.RangeBudget+1e-6, "seed %d", seed)
	}
}
