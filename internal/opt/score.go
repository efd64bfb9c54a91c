package opt

import "dronefeed/internal/model"

// ImportanceScale converts importance into score points.
const ImportanceScale = 1000.0

// Score is the total credited importance, scaled, minus distance flown.
func Score(sc *model.Scenario, trips []model.Route, credited []model.TargetID) (distance, importance, score float64) {
	cost := CostModel{Altitude: sc.CruiseAltitude}
	for _, t := range trips {
		distance += cost.PathCost(t.Stops)
	}
	importance = sc.TotalImportance(credited)
	return distance, importance, importance*ImportanceScale - distance
}
