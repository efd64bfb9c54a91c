package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"dronefeed/internal/buildinfo"
	"dronefeed/internal/model"
	"dronefeed/internal/opt"
	"dronefeed/internal/scenario"
	"dronefeed/internal/store"
)

// SolveHandler handles POST /v1/solve.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !s.allowSolve(p.Tenant) {
		w.Header().Set("Retry-After", "1")
		writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "solve rate limit exceeded", r.URL.Path)
		return
	}
	var req model.SolveRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
		return
	}
	if req.TenantID == "" {
		req.TenantID = p.Tenant
	}
	sc, o, err := s.prepare(req)
	if err == nil {
		err = scenario.Validate(&sc)
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
		return
	}

	plan, err := s.Store.SavePlan(r.Context(), model.Plan{
		TenantID: req.TenantID,
		Name:     sc.Name,
		Strategy: string(o.Strategy),
		Seed:     o.Seed,
		Status:   model.PlanRunning,
	})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Create plan failed", err.Error(), r.URL.Path)
		return
	}

	if req.Async {
		s.running.Add(1)
		go func() {
			defer s.running.Done()
			_, _ = s.runPlan(context.WithoutCancel(r.Context()), plan, sc, o)
		}()
		w.Header().Set("Location", "/v1/plans/"+plan.ID)
		writeJSON(w, http.StatusAccepted, map[string]any{"id": plan.ID, "status": plan.Status})
		return
	}

	plan, err = s.runPlan(r.Context(), plan, sc, o)
	if err != nil {
		status := http.StatusInternalServerError
		if isRequestError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeProblem(w, status, "Solve failed", err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Location", "/v1/plans/"+plan.ID)
	writeJSON(w, http.StatusCreated, plan)
}

// PlansHandler handles GET /v1/plans.
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	items, next, err := s.Store.ListPlans(r.Context(), p.Tenant, r.URL.Query().Get("cursor"), queryInt(r, "limit", 100))
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles GET /v1/plans/{id}.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.lookupPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// PlanSubmissionHandler handles GET /v1/plans/{id}/submission and renders the
// trips in the competition submission format.
func (s *Server) PlanSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.lookupPlan(w, r)
	if !ok {
		return
	}
	if plan.Status != model.PlanCompleted {
		writeProblem(w, http.StatusConflict, "Plan not completed", "status is "+plan.Status, r.URL.Path)
		return
	}
	paths := make([][][2]float64, len(plan.Trips))
	for i, t := range plan.Trips {
		paths[i] = t.XY()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_ = scenario.WriteSubmission(w, paths, queryInt(r, "precision", 0))
}

func (s *Server) lookupPlan(w http.ResponseWriter, r *http.Request) (model.Plan, bool) {
	p := s.getPrincipal(r)
	plan, err := s.Store.GetPlan(r.Context(), p.Tenant, r.PathValue("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
		return plan, false
	case err != nil:
		writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
		return plan, false
	}
	return plan, true
}

// PlanEventsHandler streams plan events as server-sent events on
// GET /v1/plans/{id}/events. The stream ends after the terminal event.
func (s *Server) PlanEventsHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// Subscribe before the status check so a plan finishing in between is
	// still observed.
	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)
	plan, ok := s.lookupPlan(w, r)
	if !ok {
		return
	}
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(evt Event) {
		b, _ := json.Marshal(evt.Data)
		fmt.Fprintf(w, "event: %s\n", evt.Type)
		fmt.Fprintf(w, "data: %s\n\n", b)
		_ = rc.Flush()
	}
	if plan.Status != model.PlanRunning {
		send(finalEvent(plan))
		return
	}
	send(Event{Type: "heartbeat", Data: map[string]any{"planId": id, "ts": time.Now().UTC().Format(time.RFC3339)}})

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			send(evt)
			if evt.Terminal() {
				return
			}
		case <-heartbeat.C:
			send(Event{Type: "heartbeat", Data: map[string]any{"planId": id, "ts": time.Now().UTC().Format(time.RFC3339)}})
		}
	}
}

func finalEvent(p model.Plan) Event {
	t := eventPlanCompleted
	if p.Status == model.PlanFailed {
		t = eventPlanFailed
	}
	data := map[string]any{"planId": p.ID, "status": p.Status, "score": p.Score, "trips": len(p.Trips)}
	if p.Error != "" {
		data["error"] = p.Error
	}
	return Event{Type: t, Data: data}
}

// PresetsHandler handles GET /v1/presets.
func (s *Server) PresetsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Presets, "strategies": opt.Strategies})
}

// StatsHandler handles GET /v1/stats with the tenant's per-strategy totals.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	writeJSON(w, http.StatusOK, map[string]any{"tenantId": p.Tenant, "strategies": opt.GetMetrics(p.Tenant)})
}

// SubscriptionsHandler handles POST and GET /v1/subscriptions.
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		forbidden(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if !readJSON(w, r, &req) {
			return
		}
		if err := validateSubscriptionRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
			return
		}
		req.TenantID = p.Tenant
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, r.URL.Query().Get("cursor"), queryInt(r, "limit", 100))
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}.
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		forbidden(w, r)
		return
	}
	err := s.Store.DeleteSubscription(r.Context(), p.Tenant, r.PathValue("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
	case err != nil:
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries.
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		forbidden(w, r)
		return
	}
	q := r.URL.Query()
	items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, q.Get("status"), q.Get("cursor"), queryInt(r, "limit", 100))
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Info())
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
