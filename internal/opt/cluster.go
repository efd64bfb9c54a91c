package opt

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"dronefeed/internal/model"
)

const (
	DefaultClusterK          = 25
	DefaultClusterThreshold  = 10
	DefaultClusterIterations = 10
)

// Cluster is a group of same-diet targets served together.
type Cluster struct {
	Diet       model.Diet
	Members    []model.TargetID
	Center     [2]float64
	Importance float64
}

// KMeans partitions points into at most k groups. Centers are seeded from a
// permutation drawn from rng, so equal seeds give equal groupings. Ties in
// assignment go to the lower center index. Empty groups are dropped; the
// result lists member indices per surviving group.
func KMeans(points [][2]float64, k, iterations int, rng *rand.Rand) [][]int {
	n := len(points)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if iterations <= 0 {
		iterations = DefaultClusterIterations
	}
	perm := rng.Perm(n)
	centers := make([][2]float64, k)
	for i := 0; i < k; i++ {
		centers[i] = points[perm[i]]
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for it := 0; it < iterations; it++ {
		changed := false
		for i, p := range points {
			c := nearestCenter(centers, p)
			if assign[i] != c {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := make([][2]float64, k)
		counts := make([]int, k)
		for i, p := range points {
			c := assign[i]
			sums[c][0] += p[0]
			sums[c][1] += p[1]
			counts[c]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = [2]float64{sums[c][0] / float64(counts[c]), sums[c][1] / float64(counts[c])}
			}
		}
	}

	groups := make([][]int, k)
	for i, c := range assign {
		groups[c] = append(groups[c], i)
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func nearestCenter(centers [][2]float64, p [2]float64) int {
	best, bestD := 0, math.Inf(1)
	for i, c := range centers {
		d := math.Hypot(p[0]-c[0], p[1]-c[1])
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// ClusterPlanner groups each diet's open targets spatially and serves the
// heaviest clusters first with a nearest-neighbour sweep.
type ClusterPlanner struct {
	Index      *Index
	MaxK       int
	Threshold  int
	Iterations int
	Seed       int64
	Priority   []model.Diet
	Log        *slog.Logger
	Stats      *Stats
}

// Clusters groups the uncredited targets and ranks the groups by total
// importance, heaviest first. Ties go to the higher priority diet, then to
// the lower first member id.
func (c *ClusterPlanner) Clusters(l *Ledger) []Cluster {
	ix := c.Index
	rng := rngFromSeed(c.Seed)
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultClusterThreshold
	}
	maxK := c.MaxK
	if maxK <= 0 {
		maxK = DefaultClusterK
	}

	var out []Cluster
	priority := priorityOrDefault(c.Priority)
	rank := make(map[model.Diet]int, len(priority))
	for i, d := range priority {
		rank[d] = i
	}
	for _, diet := range priority {
		ids := ix.Uncredited(diet, l)
		if len(ids) == 0 {
			continue
		}
		if len(ids) <= threshold {
			out = append(out, c.cluster(diet, ids))
			continue
		}
		pts := make([][2]float64, len(ids))
		for i, id := range ids {
			pts[i] = ix.Target(id).Pos.XY()
		}
		for _, g := range KMeans(pts, min(maxK, len(ids)), c.Iterations, rng) {
			members := make([]model.TargetID, len(g))
			for i, j := range g {
				members[i] = ids[j]
			}
			out = append(out, c.cluster(diet, members))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if rank[a.Diet] != rank[b.Diet] {
			return rank[a.Diet] < rank[b.Diet]
		}
		return a.Members[0] < b.Members[0]
	})
	return out
}

func (c *ClusterPlanner) cluster(diet model.Diet, members []model.TargetID) Cluster {
	cl := Cluster{Diet: diet, Members: members}
	for _, id := range members {
		t := c.Index.Target(id)
		cl.Importance += t.Importance
		cl.Center[0] += t.Pos.X
		cl.Center[1] += t.Pos.Y
	}
	if n := float64(len(members)); n > 0 {
		cl.Center[0] /= n
		cl.Center[1] /= n
	}
	return cl
}

func (c *ClusterPlanner) PlanTrip(l *Ledger, budget float64) model.Route {
	ix := c.Index
	depot := ix.Depot()
	v := NewVehicle(depot, budget, ix.Leg)
	route := model.Route{Stops: []model.Stop{model.DepotStop(depot)}}
	taken := map[model.TargetID]bool{}

	for _, cl := range c.Clusters(l) {
		saved, mark := *v, len(route.Stops)
		if v.Diet != cl.Diet {
			src, ok := ix.NearestSource(v.Pos, cl.Diet)
			if !ok {
				logger(c.Log).Debug("no source for cluster diet", slog.String("diet", string(cl.Diet)), slog.Int("members", len(cl.Members)))
				if c.Stats != nil {
					c.Stats.SkippedDiets++
				}
				continue
			}
			if !v.CanReserve(src.Pos) {
				continue
			}
			stop := model.SourceStop(src)
			v.Visit(stop)
			route.Stops = append(route.Stops, stop)
		}
		if c.sweep(v, &route, cl.Members, taken) == 0 && len(route.Stops) > mark {
			*v = saved
			route.Stops = route.Stops[:mark]
		}
	}

	route.Stops = append(route.Stops, model.DepotStop(depot))
	return route
}

// sweep repeatedly visits the nearest affordable member until none is left.
func (c *ClusterPlanner) sweep(v *Vehicle, route *model.Route, members []model.TargetID, taken map[model.TargetID]bool) int {
	cost := c.Index.Cost()
	served := 0
	for {
		var best model.TargetID
		bestCost, found := 0.0, false
		for _, id := range members {
			if taken[id] {
				continue
			}
			t := c.Index.Target(id)
			if !v.CanReserve(t.Pos) {
				continue
			}
			if d := cost.Cost(v.Pos, t.Pos); !found || d < bestCost {
				best, bestCost, found = id, d, true
			}
		}
		if !found {
			return served
		}
		stop := model.TargetStop(best, c.Index.Target(best))
		v.Visit(stop)
		route.Stops = append(route.Stops, stop)
		taken[best] = true
		served++
	}
}
