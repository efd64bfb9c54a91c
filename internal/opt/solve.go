// Package opt plans feeding trips for a range-limited drone: cost model,
// spatial index, greedy and cluster planners, battery segmentation and
// exclusion zone avoidance.
package opt

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"dronefeed/internal/model"
)

// Strategy names a planning pipeline.
type Strategy string

const (
	StrategyAuto      Strategy = "auto"
	StrategyGreedy    Strategy = "greedy"
	StrategyMulti     Strategy = "multi"
	StrategySegmented Strategy = "segmented"
	StrategyAvoid     Strategy = "avoid"
	StrategyCluster   Strategy = "cluster"
)

// Strategies lists every accepted strategy name.
var Strategies = []Strategy{StrategyAuto, StrategyGreedy, StrategyMulti, StrategySegmented, StrategyAvoid, StrategyCluster}

func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyAuto, nil
	}
	for _, st := range Strategies {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownStrategy)
}

// DefaultAutoClusterMin is the target count from which auto switches to
// clustering.
const DefaultAutoClusterMin = 100

// Options tunes a solve. The zero value is usable. OnTrip, when set, observes
// each accepted trip as soon as it is planned.
type Options struct {
	Strategy          Strategy
	Seed              int64
	SafetyMargin      float64
	MaxDetours        int
	ClusterK          int
	ClusterThreshold  int
	ClusterIterations int
	TwoOptPasses      int
	AutoClusterMin    int
	Priority          []model.Diet
	Logger            *slog.Logger
	OnTrip            func(TripEvent)
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyAuto
	}
	if o.SafetyMargin <= 0 {
		o.SafetyMargin = DefaultSafetyMargin
	}
	if o.MaxDetours <= 0 {
		o.MaxDetours = DefaultMaxDetours
	}
	if o.ClusterK <= 0 {
		o.ClusterK = DefaultClusterK
	}
	if o.ClusterThreshold <= 0 {
		o.ClusterThreshold = DefaultClusterThreshold
	}
	if o.ClusterIterations <= 0 {
		o.ClusterIterations = DefaultClusterIterations
	}
	if o.AutoClusterMin <= 0 {
		o.AutoClusterMin = DefaultAutoClusterMin
	}
	if len(o.Priority) == 0 {
		o.Priority = model.DietPriority
	}
	o.Logger = logger(o.Logger)
	return o
}

// Stats counts what happened during a solve.
type Stats struct {
	Trips        int
	Credited     int
	Detours      int
	Truncations  int
	SkippedDiets int
	Unreachable  int
}

func (s Stats) Map() map[string]int {
	return map[string]int{
		"trips":        s.Trips,
		"credited":     s.Credited,
		"detours":      s.Detours,
		"truncations":  s.Truncations,
		"skippedDiets": s.SkippedDiets,
		"unreachable":  s.Unreachable,
	}
}

// Result is the outcome of one solve.
type Result struct {
	Strategy   Strategy
	Trips      []model.Route
	Credited   []model.TargetID
	Distance   float64
	Importance float64
	Score      float64
	Stats      Stats
	Elapsed    time.Duration
}

// Resolve picks the concrete pipeline for sc when s is auto.
func Resolve(s Strategy, sc *model.Scenario, autoClusterMin int) Strategy {
	if s != StrategyAuto && s != "" {
		return s
	}
	if autoClusterMin <= 0 {
		autoClusterMin = DefaultAutoClusterMin
	}
	switch {
	case len(sc.Targets) >= autoClusterMin:
		return StrategyCluster
	case len(sc.Zones) > 0:
		return StrategyAvoid
	case sc.MaxTrips == 1:
		return StrategyGreedy
	default:
		return StrategyMulti
	}
}

// Solve plans trips for sc. The scenario is not modified; credited state
// lives in a ledger owned by this call.
func Solve(sc model.Scenario, opts Options) (Result, error) {
	start := time.Now()
	if err := validateScenario(&sc); err != nil {
		return Result{}, err
	}
	opts = opts.withDefaults()
	strategy := Resolve(opts.Strategy, &sc, opts.AutoClusterMin)
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return Result{}, err
	}
	log := opts.Logger.With(slog.String("strategy", string(strategy)))

	res := Result{Strategy: strategy}
	ix := NewIndex(&sc, CostModel{Altitude: sc.CruiseAltitude}, true)
	if ix.inZone(sc.Depot) {
		return Result{}, fmt.Errorf("%w: depot lies inside an exclusion zone", ErrInvalidScenario)
	}
	res.Stats.Unreachable = ix.Unreachable()
	if ix.Unreachable() > 0 {
		log.Info("targets inside exclusion zones will not be served", slog.Int("count", ix.Unreachable()))
	}
	if len(sc.Targets) == 0 {
		res.Elapsed = time.Since(start)
		return res, nil
	}

	// Every strategy detours around zones. Avoidance must come last: it
	// rebuilds detours for the final stop order.
	var post []PostProcessor
	if opts.TwoOptPasses > 0 {
		post = append(post, TwoOpt{Leg: ix.Leg, Passes: opts.TwoOptPasses})
	}
	if len(ix.Zones()) > 0 {
		av := &Avoider{Index: ix, Margin: opts.SafetyMargin, MaxDetours: opts.MaxDetours, Log: log, Stats: &res.Stats}
		ix.SetLeg(av.DetourCost)
		post = append(post, av)
	}

	ledger := NewLedger()
	seg := &Segmenter{
		Index:    ix,
		Budget:   sc.RangeBudget,
		MaxTrips: sc.MaxTrips,
		Post:     post,
		OnTrip:   opts.OnTrip,
		Log:      log,
	}
	greedy := &GreedyPlanner{Index: ix, Priority: opts.Priority, Log: log, Stats: &res.Stats}

	switch strategy {
	case StrategyGreedy:
		r, _ := seg.place(0, greedy.PlanTrip(ledger, sc.RangeBudget), ledger, true)
		res.Trips = []model.Route{r}
	case StrategyMulti, StrategyAvoid:
		res.Trips = seg.Run(greedy, ledger)
	case StrategyCluster:
		cp := &ClusterPlanner{
			Index:      ix,
			MaxK:       opts.ClusterK,
			Threshold:  opts.ClusterThreshold,
			Iterations: opts.ClusterIterations,
			Seed:       opts.Seed,
			Priority:   opts.Priority,
			Log:        log,
			Stats:      &res.Stats,
		}
		res.Trips = seg.Run(cp, ledger)
	case StrategySegmented:
		master := greedy.PlanTrip(ledger, math.Inf(1))
		planned, err := seg.Split(master, ledger)
		if err != nil {
			return Result{}, err
		}
		for _, r := range planned {
			res.Trips, _ = seg.accept(res.Trips, r, ledger)
		}
	}

	for i, r := range res.Trips {
		if err := ValidateRoute(r, ix, sc.RangeBudget); err != nil {
			return Result{}, fmt.Errorf("trip %d: %w", i, err)
		}
	}

	res.Credited = ledger.IDs()
	res.Distance, res.Importance, res.Score = Score(&sc, res.Trips, res.Credited)
	res.Stats.Trips = len(res.Trips)
	res.Stats.Credited = len(res.Credited)
	res.Elapsed = time.Since(start)
	log.Info("solve finished",
		slog.Int("trips", res.Stats.Trips),
		slog.Int("credited", res.Stats.Credited),
		slog.Float64("distance", res.Distance),
		slog.Float64("score", res.Score),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}
