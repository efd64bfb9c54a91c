package opt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"dronefeed/internal/model"
)

var posInf = math.Inf(1)

// feedingScenario is the smallest useful instance: one storage, one
// enclosure, unlimited range.
func feedingScenario() model.Scenario {
	return model.Scenario{
		CruiseAltitude: 50,
		Depot:          model.Pt(50, 50, 0),
		RangeBudget:    999999,
		MaxTrips:       1,
		Sources:        []model.SupplySource{{Pos: model.Pt(30, 30, 0), Diet: model.Carnivore}},
		Targets:        []model.DeliveryTarget{{Pos: model.Pt(20, 40, 0), Diet: model.Carnivore, Importance: 2}},
	}
}

// randomScenario places targets, sources and zones uniformly in a 1000x1000
// field. Zones never cover the depot.
func randomScenario(seed int64, targets, zones int) model.Scenario {
	rng := rand.New(rand.NewSource(seed))
	diets := model.DietPriority
	pt := func() model.Point3 {
		return model.Pt(rng.Float64()*1000, rng.Float64()*1000, rng.Float64()*20)
	}
	sc := model.Scenario{
		Bounds:         model.Pt(1000, 1000, 100),
		CruiseAltitude: 60,
		Depot:          model.Pt(500, 500, 0),
		RangeBudget:    2200,
		MaxTrips:       40,
	}
	for _, d := range diets {
		sc.Sources = append(sc.Sources, model.SupplySource{Pos: pt(), Diet: d})
	}
	for i := 0; i < targets; i++ {
		sc.Targets = append(sc.Targets, model.DeliveryTarget{
			Pos:        pt(),
			Diet:       diets[rng.Intn(len(diets))],
			Importance: 1 + float64(rng.Intn(5)),
		})
	}
	for len(sc.Zones) < zones {
		z := model.ExclusionZone{X: rng.Float64() * 1000, Y: rng.Float64() * 1000, Radius: 10 + rng.Float64()*40}
		if z.Contains(sc.Depot) || model.Pt(z.X, z.Y, 0).Dist2D(sc.Depot) < z.Radius+20 {
			continue
		}
		sc.Zones = append(sc.Zones, z)
	}
	return sc
}

// requireDeliveryRules replays every trip and checks that each credited
// target was reached while carrying its diet, exactly once over the plan.
func requireDeliveryRules(t *testing.T, res Result) {
	t.Helper()
	seen := map[model.TargetID]bool{}
	for _, trip := range res.Trips {
		var carried model.Diet
		for _, s := range trip.Stops {
			switch s.Kind {
			case model.StopSource:
				carried = s.Diet
			case model.StopTarget:
				if carried == s.Diet && !seen[s.Target] {
					seen[s.Target] = true
				}
			}
		}
	}
	require.Len(t, seen, len(res.Credited))
	for _, id := range res.Credited {
		require.True(t, seen[id], "target %d credited without a matching delivery", id)
	}
}
