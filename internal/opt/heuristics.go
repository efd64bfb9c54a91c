package opt

import "dronefeed/internal/model"

// ImproveOrder2Opt applies a simple 2-opt heuristic to reduce total distance.
// The first and last entries of order are anchors and never move.
func ImproveOrder2Opt(nodes []model.Point3, order []int, iterations int, leg LegFunc) []int {
	if iterations <= 0 {
		iterations = 1
	}
	best := append([]int(nil), order...)
	bestDist := pathDistance(nodes, best, leg)
	n := len(order)
	for it := 0; it < iterations; it++ {
		improved := false
		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				newOrder := twoOptSwap(best, i, k)
				d := pathDistance(nodes, newOrder, leg)
				if d+1e-3 < bestDist {
					best = newOrder
					bestDist = d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func twoOptSwap(ord []int, i, k int) []int {
	out := make([]int, len(ord))
	copy(out, ord[:i])
	// reverse i..k
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = ord[j]
		pos++
	}
	copy(out[pos:], ord[k+1:])
	return out
}

func pathDistance(nodes []model.Point3, order []int, leg LegFunc) float64 {
	total := 0.0
	for i := 0; i < len(order)-1; i++ {
		total += leg(nodes[order[i]], nodes[order[i+1]])
	}
	return total
}

// TwoOpt reorders every run of consecutive target stops in a trip, keeping
// the stops around the run fixed. Runs never cross a source, so each target
// is still served with the diet it was planned with, and total cost can only
// go down.
type TwoOpt struct {
	Leg    LegFunc
	Passes int
}

func (t TwoOpt) Process(r model.Route, _ float64) model.Route {
	if t.Passes <= 0 {
		return r
	}
	out := r.Clone()
	stops := out.Stops
	for i := 1; i < len(stops)-1; {
		if stops[i].Kind != model.StopTarget {
			i++
			continue
		}
		j := i
		for j < len(stops)-1 && stops[j].Kind == model.StopTarget {
			j++
		}
		// stops[i:j] is a run, anchored by stops[i-1] and stops[j].
		if j-i >= 2 {
			seg := stops[i-1 : j+1]
			nodes := make([]model.Point3, len(seg))
			order := make([]int, len(seg))
			for k, s := range seg {
				nodes[k] = s.Pos
				order[k] = k
			}
			best := ImproveOrder2Opt(nodes, order, t.Passes, t.Leg)
			reordered := make([]model.Stop, len(seg))
			for k, idx := range best {
				reordered[k] = seg[idx]
			}
			copy(seg, reordered)
		}
		i = j
	}
	return out
}
