package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefeed/internal/model"
)

func TestSolve_PlanInvariants(t *testing.T) {
	strategies := []Strategy{StrategyGreedy, StrategyMulti, StrategySegmented, StrategyAvoid, StrategyCluster}
	for _, st := range strategies {
		for seed := int64(1); seed <= 3; seed++ {
			sc := randomScenario(seed, 70, 5)
			res, err := Solve(sc, Options{Strategy: st, Seed: seed, TwoOptPasses: 1})
			require.NoError(t, err, "%s seed %d", st, seed)
			assert.Equal(t, st, res.Strategy)
			assert.LessOrEqual(t, len(res.Trips), sc.MaxTrips)

			ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, true)
			for i, trip := range res.Trips {
				require.NoError(t, ValidateRoute(trip, ix, sc.RangeBudget), "%s seed %d trip %d", st, seed, i)
			}
			requireDeliveryRules(t, res)
			assert.InDelta(t, res.Importance*ImportanceScale-res.Distance, res.Score, 1e-6)
			if st != StrategyGreedy {
				assert.NotEmpty(t, res.Credited, "%s seed %d", st, seed)
			}
		}
	}
}

func TestSolve_RejectsInvalidScenario(t *testing.T) {
	tests := map[string]func(*model.Scenario){
		"zero budget":       func(sc *model.Scenario) { sc.RangeBudget = 0 },
		"no trips":          func(sc *model.Scenario) { sc.MaxTrips = 0 },
		"bad diet":          func(sc *model.Scenario) { sc.Targets[0].Diet = "x" },
		"zero importance":   func(sc *model.Scenario) { sc.Targets[0].Importance = 0 },
		"negative radius":   func(sc *model.Scenario) { sc.Zones = []model.ExclusionZone{{Radius: -1}} },
		"negative cruise":   func(sc *model.Scenario) { sc.CruiseAltitude = -1 },
		"depot inside zone": func(sc *model.Scenario) { sc.Zones = []model.ExclusionZone{{X: 50, Y: 50, Radius: 5}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			sc := feedingScenario()
			mutate(&sc)
			_, err := Solve(sc, Options{Strategy: StrategyAvoid})
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestSolve_NoTargets(t *testing.T) {
	sc := feedingScenario()
	sc.Targets = nil
	res, err := Solve(sc, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Trips)
	assert.Zero(t, res.Score)
}

func TestSolve_TargetsInsideZonesAreSkipped(t *testing.T) {
	sc := feedingScenario()
	sc.Targets = append(sc.Targets, model.DeliveryTarget{Pos: model.Pt(80, 80, 0), Diet: model.Carnivore, Importance: 5})
	sc.Zones = []model.ExclusionZone{{X: 80, Y: 80, Radius: 3}}
	sc.MaxTrips = 3
	res, err := Solve(sc, Options{Strategy: StrategyAvoid})
	require.NoError(t, err)
	assert.Equal(t, []model.TargetID{0}, res.Credited)
	assert.Equal(t, 1, res.Stats.Unreachable)
}

func TestSolve_EveryStrategyAvoidsZones(t *testing.T) {
	for _, st := range []Strategy{StrategyGreedy, StrategyMulti, StrategySegmented, StrategyAvoid, StrategyCluster} {
		t.Run(string(st), func(t *testing.T) {
			sc := zoneScenario(10)
			res, err := Solve(sc, Options{Strategy: st})
			require.NoError(t, err)
			assert.Equal(t, []model.TargetID{0}, res.Credited)
			assert.Positive(t, res.Stats.Detours)

			ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, true)
			require.NotEmpty(t, res.Trips)
			for _, trip := range res.Trips {
				require.NoError(t, ValidateRoute(trip, ix, sc.RangeBudget))
				pts := make([]model.Point3, len(trip.Stops))
				for i, s := range trip.Stops {
					pts[i] = s.Pos
				}
				requireClear(t, sc.Zones, pts)
			}
		})
	}
}

func TestSolve_GreedyKeepsEmptyTrip(t *testing.T) {
	sc := feedingScenario()
	sc.RangeBudget = 10
	var events []TripEvent
	res, err := Solve(sc, Options{Strategy: StrategyGreedy, OnTrip: func(e TripEvent) { events = append(events, e) }})
	require.NoError(t, err)
	require.Len(t, res.Trips, 1)
	assert.Len(t, res.Trips[0].Stops, 2)
	assert.Empty(t, res.Credited)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Credited)
}

func TestSolve_OnTripSeesEveryTrip(t *testing.T) {
	sc := randomScenario(2, 40, 0)
	var got []int
	res, err := Solve(sc, Options{Strategy: StrategyMulti, OnTrip: func(e TripEvent) { got = append(got, e.Index) }})
	require.NoError(t, err)
	require.Len(t, got, len(res.Trips))
	for i, idx := range got {
		assert.Equal(t, i, idx)
	}
}

func TestResolve(t *testing.T) {
	sc := feedingScenario()
	assert.Equal(t, StrategyGreedy, Resolve(StrategyAuto, &sc, 0))
	sc.MaxTrips = 3
	assert.Equal(t, StrategyMulti, Resolve(StrategyAuto, &sc, 0))
	sc.Zones = []model.ExclusionZone{{X: 0, Y: 0, Radius: 1}}
	assert.Equal(t, StrategyAvoid, Resolve("", &sc, 0))
	assert.Equal(t, StrategyCluster, Resolve(StrategyAuto, &sc, 1))
	assert.Equal(t, StrategySegmented, Resolve(StrategySegmented, &sc, 1))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Cluster")
	require.NoError(t, err)
	assert.Equal(t, StrategyCluster, s)
	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAuto, s)
	_, err = ParseStrategy("annealing")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestPresets(t *testing.T) {
	p, err := PresetFor(3, nil)
	require.NoError(t, err)
	assert.Equal(t, 2750.0, p.RangeBudget)
	assert.Equal(t, 51, p.MaxTrips)

	sc := feedingScenario()
	var o Options
	p.Apply(&sc, &o)
	assert.Equal(t, 2750.0, sc.RangeBudget)
	assert.Equal(t, StrategyAvoid, o.Strategy)

	_, err = PresetFor(9, nil)
	assert.ErrorIs(t, err, ErrUnknownLevel)

	ps := []Preset{{Level: 4}, {Level: 1}, {Level: 2}}
	SortPresets(ps)
	assert.Equal(t, []int{1, 2, 4}, []int{ps[0].Level, ps[1].Level, ps[2].Level})
}

func TestRecordMetrics(t *testing.T) {
	RecordMetrics("t_metrics", Result{Strategy: StrategyMulti, Score: 10, Stats: Stats{Trips: 2, Credited: 3}})
	RecordMetrics("t_metrics", Result{Strategy: StrategyMulti, Score: 4, Stats: Stats{Trips: 1, Credited: 1}})
	got := GetMetrics("t_metrics")
	require.Contains(t, got, StrategyMulti)
	s := got[StrategyMulti]
	assert.Equal(t, 2, s.Solves)
	assert.Equal(t, 3, s.Trips)
	assert.Equal(t, 4, s.Credited)
	assert.Equal(t, 10.0, s.BestScore)
	assert.Equal(t, 4.0, s.LastScore)
	assert.Empty(t, GetMetrics("t_other"))
}
