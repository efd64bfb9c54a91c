package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dronefeed/internal/metrics"
	"dronefeed/internal/model"
	"dronefeed/internal/opt"
	"dronefeed/internal/webhooks"
)

const (
	eventTripPlanned   = webhooks.EventTripPlanned
	eventPlanCompleted = webhooks.EventPlanCompleted
	eventPlanFailed    = webhooks.EventPlanFailed
)

// prepare applies the requested level preset and planner settings. The
// request's own strategy and seed win over the preset.
func (s *Server) prepare(req model.SolveRequest) (model.Scenario, opt.Options, error) {
	sc := req.Scenario
	if sc.MaxTrips == 0 {
		sc.MaxTrips = 1
	}
	if sc.CruiseAltitude == 0 {
		sc.CruiseAltitude = s.Cfg.Planner.CruiseAltitude
	}
	o := s.Cfg.Planner.Options()
	o.Logger = s.Log
	if req.Level > 0 {
		p, err := opt.PresetFor(req.Level, s.Presets)
		if err != nil {
			return sc, o, err
		}
		p.Apply(&sc, &o)
	}
	if req.Strategy != "" {
		st, err := opt.ParseStrategy(req.Strategy)
		if err != nil {
			return sc, o, err
		}
		o.Strategy = st
	}
	if req.Seed != 0 {
		o.Seed = req.Seed
	}
	if req.TwoOptPasses > 0 {
		o.TwoOptPasses = req.TwoOptPasses
	}
	return sc, o, nil
}

// runPlan solves sc, streaming each accepted trip, and stores the outcome on
// plan. The returned error is the solve error, if any.
func (s *Server) runPlan(ctx context.Context, plan model.Plan, sc model.Scenario, o opt.Options) (model.Plan, error) {
	log := s.Log.With(slog.String("plan", plan.ID), slog.String("tenant", plan.TenantID))
	cost := opt.CostModel{Altitude: sc.CruiseAltitude}
	o.Logger = log
	o.OnTrip = func(ev opt.TripEvent) {
		data := map[string]any{
			"planId":   plan.ID,
			"index":    ev.Index,
			"trip":     model.TripOut(ev.Route, ev.Distance),
			"credited": creditedInts(ev.Credited),
		}
		s.Broker.Publish(plan.ID, Event{Type: eventTripPlanned, Data: data})
		s.Pub.Emit(ctx, plan.TenantID, eventTripPlanned, data)
	}

	res, err := opt.Solve(sc, o)
	strategy := res.Strategy
	if strategy == "" {
		strategy = o.Strategy
	}
	metrics.ObserveSolve(string(strategy), res.Elapsed.Seconds(), res.Stats.Trips, res.Stats.Credited, res.Stats.Detours, err)

	now := time.Now().UTC()
	plan.CompletedAt = &now
	evType := eventPlanCompleted
	if err != nil {
		log.Warn("solve failed", slog.Any("error", err))
		plan.Status = model.PlanFailed
		plan.Error = err.Error()
		evType = eventPlanFailed
	} else {
		opt.RecordMetrics(plan.TenantID, res)
		plan.Status = model.PlanCompleted
		plan.Strategy = string(res.Strategy)
		plan.Trips = make([]model.Trip, len(res.Trips))
		for i, r := range res.Trips {
			plan.Trips[i] = model.TripOut(r, cost.PathCost(r.Stops))
		}
		plan.Credited = creditedInts(res.Credited)
		plan.Distance, plan.Importance, plan.Score = res.Distance, res.Importance, res.Score
		plan.Stats = res.Stats.Map()
	}

	saved, serr := s.Store.SavePlan(ctx, plan)
	if serr != nil {
		log.Error("save plan", slog.Any("error", serr))
	} else {
		plan = saved
	}

	data := map[string]any{"planId": plan.ID, "status": plan.Status, "score": plan.Score, "trips": len(plan.Trips)}
	if plan.Error != "" {
		data["error"] = plan.Error
	}
	s.Broker.Publish(plan.ID, Event{Type: evType, Data: data})
	s.Pub.Emit(ctx, plan.TenantID, evType, data)
	return plan, err
}

func creditedInts(ids []model.TargetID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// isRequestError reports whether err was caused by the request rather than
// the service.
func isRequestError(err error) bool {
	return errors.Is(err, opt.ErrInvalidScenario) ||
		errors.Is(err, opt.ErrUnknownStrategy) ||
		errors.Is(err, opt.ErrUnknownLevel)
}
