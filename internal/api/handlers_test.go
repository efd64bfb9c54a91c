package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefeed/internal/config"
	"dronefeed/internal/model"
	"dronefeed/internal/store"
)

const feedingScenario = `{
	"cruiseAltitude": 50,
	"depot": {"x": 50, "y": 50, "z": 0},
	"rangeBudget": 500,
	"sources": [{"pos": {"x": 30, "y": 30, "z": 0}, "diet": "c"}],
	"targets": [{"pos": {"x": 20, "y": 40, "z": 0}, "diet": "c", "importance": 2}]
}`

// feedingDistance is depot -> storage -> enclosure -> depot at altitude 50.
var feedingDistance = 300 + math.Hypot(20, 20) + math.Hypot(10, 10) + math.Hypot(30, 10)

func newTestServer(t *testing.T, mutate ...func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(cfg)
	}
	s, err := NewServer(*cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string, headers ...string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func solveBody(extra string) string {
	if extra != "" {
		extra = "," + extra
	}
	return `{"scenario":` + feedingScenario + extra + `}`
}

func TestHealthReadyVersion(t *testing.T) {
	_, ts := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/healthz", "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/readyz", "").StatusCode)
	v := decode[map[string]string](t, do(t, http.MethodGet, ts.URL+"/v1/version", ""))
	assert.Contains(t, v, "version")
}

func TestSolveSync(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(""))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	plan := decode[model.Plan](t, resp)

	assert.Equal(t, model.PlanCompleted, plan.Status)
	assert.Equal(t, "greedy", plan.Strategy)
	assert.Equal(t, []int{0}, plan.Credited)
	require.Len(t, plan.Trips, 1)
	assert.Len(t, plan.Trips[0].Stops, 4)
	assert.InDelta(t, feedingDistance, plan.Distance, 1e-6)
	assert.InDelta(t, 2000-feedingDistance, plan.Score, 1e-6)
	assert.Equal(t, "/v1/plans/"+plan.ID, resp.Header.Get("Location"))

	got := decode[model.Plan](t, do(t, http.MethodGet, ts.URL+"/v1/plans/"+plan.ID, ""))
	assert.Equal(t, plan.ID, got.ID)

	sub := do(t, http.MethodGet, ts.URL+"/v1/plans/"+plan.ID+"/submission", "")
	require.Equal(t, http.StatusOK, sub.StatusCode)
	b, _ := io.ReadAll(sub.Body)
	assert.Equal(t, "[[(50,50),(30,30),(20,40),(50,50)]]\n", string(b))
}

func TestSolveRejectsBadRequests(t *testing.T) {
	_, ts := newTestServer(t)
	cases := map[string]string{
		"invalid json":     `{"scenario":`,
		"unknown strategy": solveBody(`"strategy":"nope"`),
		"unknown level":    solveBody(`"level":9`),
		"missing budget":   `{"scenario":{"depot":{"x":0,"y":0,"z":0},"targets":[]}}`,
		"bad diet":         `{"scenario":{"depot":{"x":0,"y":0,"z":0},"rangeBudget":10,"sources":[{"pos":{"x":1,"y":1,"z":0},"diet":"x"}]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/v1/solve", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			p := decode[Problem](t, resp)
			assert.Equal(t, http.StatusBadRequest, p.Status)
		})
	}
}

func TestSolveAppliesLevelPreset(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(`"level":2`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	plan := decode[model.Plan](t, resp)
	assert.Equal(t, "multi", plan.Strategy)
	assert.Equal(t, []int{0}, plan.Credited)
}

func TestSolveAsync(t *testing.T) {
	s, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(`"async":true`))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	plan := decode[model.Plan](t, do(t, http.MethodGet, ts.URL+"/v1/plans/"+id, ""))
	assert.Equal(t, model.PlanCompleted, plan.Status)
	assert.NotNil(t, plan.CompletedAt)
}

func TestRunPlanPublishesEvents(t *testing.T) {
	s, _ := newTestServer(t)
	var req model.SolveRequest
	require.NoError(t, json.Unmarshal([]byte(solveBody("")), &req))
	sc, o, err := s.prepare(req)
	require.NoError(t, err)
	plan, err := s.Store.SavePlan(t.Context(), model.Plan{TenantID: defaultTenant, Status: model.PlanRunning})
	require.NoError(t, err)

	ch := s.Broker.Subscribe(plan.ID)
	defer s.Broker.Unsubscribe(plan.ID, ch)
	plan, err = s.runPlan(t.Context(), plan, sc, o)
	require.NoError(t, err)

	first, second := <-ch, <-ch
	assert.Equal(t, eventTripPlanned, first.Type)
	assert.Equal(t, 0, first.Data["index"])
	assert.Equal(t, eventPlanCompleted, second.Type)
	assert.Equal(t, plan.ID, second.Data["planId"])
}

func TestSolveFailureIsStored(t *testing.T) {
	s, _ := newTestServer(t)
	var req model.SolveRequest
	require.NoError(t, json.Unmarshal([]byte(solveBody("")), &req))
	sc, o, err := s.prepare(req)
	require.NoError(t, err)
	sc.Zones = []model.ExclusionZone{{X: 50, Y: 50, Radius: 5}}
	o.Strategy = "avoid"
	plan, err := s.Store.SavePlan(t.Context(), model.Plan{TenantID: defaultTenant, Status: model.PlanRunning})
	require.NoError(t, err)

	plan, err = s.runPlan(t.Context(), plan, sc, o)
	require.Error(t, err)
	assert.True(t, isRequestError(err))
	assert.Equal(t, model.PlanFailed, plan.Status)
	assert.NotEmpty(t, plan.Error)
}

func TestPlansAreTenantScoped(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(""), "X-Tenant-Id", "t1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	plan := decode[model.Plan](t, resp)

	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, ts.URL+"/v1/plans/"+plan.ID, "", "X-Tenant-Id", "t2").StatusCode)

	list := decode[struct {
		Items []model.Plan `json:"items"`
	}](t, do(t, http.MethodGet, ts.URL+"/v1/plans", "", "X-Tenant-Id", "t1"))
	require.Len(t, list.Items, 1)
	assert.Equal(t, plan.ID, list.Items[0].ID)
}

func TestPlanEventsForFinishedPlan(t *testing.T) {
	_, ts := newTestServer(t)
	plan := decode[model.Plan](t, do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody("")))

	resp := do(t, http.MethodGet, ts.URL+"/v1/plans/"+plan.ID+"/events", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "event: plan.completed")
	assert.Contains(t, string(b), plan.ID)
}

func TestPlanStreamForFinishedPlan(t *testing.T) {
	_, ts := newTestServer(t)
	plan := decode[model.Plan](t, do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody("")))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/plans/" + plan.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, eventPlanCompleted, evt.Type)
	assert.Equal(t, plan.ID, evt.Data["planId"])
}

func TestPlanNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	for _, p := range []string{"/v1/plans/missing", "/v1/plans/missing/submission", "/v1/plans/missing/events"} {
		assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, ts.URL+p, "").StatusCode, p)
	}
}

func TestSubscriptionsAndDeliveries(t *testing.T) {
	s, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/subscriptions", `{"url":"http://example.com/hook","events":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/v1/subscriptions", `{"url":"http://example.com/hook","events":["plan.completed"]}`, "X-Role", "planner")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/v1/subscriptions", `{"url":"http://example.com/hook","events":["plan.completed"],"secret":"k"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sub := decode[model.Subscription](t, resp)
	assert.Equal(t, defaultTenant, sub.TenantID)

	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody("")).StatusCode)

	deliveries := decode[struct {
		Items []store.WebhookDelivery `json:"items"`
	}](t, do(t, http.MethodGet, ts.URL+"/v1/admin/webhook-deliveries?status=pending", ""))
	require.Len(t, deliveries.Items, 1)
	assert.Equal(t, "plan.completed", deliveries.Items[0].EventType)

	due, err := s.Store.FetchDueWebhookDeliveries(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(due[0].Payload, &payload))
	assert.Equal(t, "plan.completed", payload["type"])

	assert.Equal(t, http.StatusNoContent, do(t, http.MethodDelete, ts.URL+"/v1/subscriptions/"+sub.ID, "").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodDelete, ts.URL+"/v1/subscriptions/"+sub.ID, "").StatusCode)
}

func TestSolveRateLimited(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) {
		c.Server.SolveRPS = 0.001
		c.Server.SolveBurst = 1
	})
	assert.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody("")).StatusCode)
	resp := do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(""))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	// Buckets are per tenant.
	assert.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(""), "X-Tenant-Id", "other").StatusCode)
}

func TestPresetsStatsMetricsDocs(t *testing.T) {
	_, ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(""), "X-Tenant-Id", "t_stats").StatusCode)

	presets := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, do(t, http.MethodGet, ts.URL+"/v1/presets", ""))
	assert.Len(t, presets.Items, 4)

	stats := decode[struct {
		Strategies map[string]map[string]any `json:"strategies"`
	}](t, do(t, http.MethodGet, ts.URL+"/v1/stats", "", "X-Tenant-Id", "t_stats"))
	require.Contains(t, stats.Strategies, "greedy")
	assert.EqualValues(t, 1, stats.Strategies["greedy"]["solves"])

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "dronefeed_solves_total")
	assert.Contains(t, string(b), "dronefeed_http_requests_total")

	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/openapi.yaml", "").StatusCode)
	doc := decode[map[string]any](t, do(t, http.MethodGet, ts.URL+"/openapi.json", ""))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr}
	_, _ = rec.Write([]byte("x"))
	rec.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, rec.status)
	assert.Equal(t, "x", rr.Body.String())
}

func TestSolve_ProblemDocuments(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/solve", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Invalid JSON", decode[Problem](t, resp).Title)
}

func TestReadJSON_TooLarge(t *testing.T) {
	body := `{"tenantId":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(body))
	rec := httptest.NewRecorder()
	var v model.SolveRequest
	assert.False(t, readJSON(rec, req, &v))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
