package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefeed/internal/config"
	"dronefeed/internal/model"
)

func TestGetPrincipal_Headers(t *testing.T) {
	s := &Server{}
	r, _ := http.NewRequest(http.MethodGet, "/v1/plans", nil)
	assert.Equal(t, Principal{Tenant: defaultTenant, Role: roleAdmin}, s.getPrincipal(r))

	r.Header.Set("X-Tenant-Id", "zoo1")
	r.Header.Set("X-Role", "planner")
	p := s.getPrincipal(r)
	assert.Equal(t, "zoo1", p.Tenant)
	assert.False(t, p.IsAdmin())
}

func TestBearerToken(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/v1/plans", nil)
	_, ok := bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Basic abc")
	_, ok = bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "bearer zoo1:admin")
	tok, ok := bearerToken(r)
	require.True(t, ok)
	assert.Equal(t, "zoo1:admin", tok)

	q, _ := http.NewRequest(http.MethodGet, "/v1/plans/x/stream?access_token=zoo1:admin", nil)
	tok, ok = bearerToken(q)
	require.True(t, ok)
	assert.Equal(t, "zoo1:admin", tok)
}

func TestAuthenticate_DevTokens(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) { c.Auth.Mode = "dev" })

	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/healthz", "").StatusCode)

	resp := do(t, http.MethodGet, ts.URL+"/v1/plans", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	assert.Equal(t, http.StatusUnauthorized,
		do(t, http.MethodGet, ts.URL+"/v1/plans", "", "Authorization", "Bearer nocolon").StatusCode)

	// Headers are ignored once tokens are required.
	resp = do(t, http.MethodPost, ts.URL+"/v1/solve", solveBody(""),
		"Authorization", "Bearer zoo1:planner", "X-Tenant-Id", "spoofed")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	plan := decode[model.Plan](t, resp)
	assert.Equal(t, "zoo1", plan.TenantID)

	assert.Equal(t, http.StatusForbidden,
		do(t, http.MethodGet, ts.URL+"/v1/subscriptions", "", "Authorization", "Bearer zoo1:planner").StatusCode)
	assert.Equal(t, http.StatusOK,
		do(t, http.MethodGet, ts.URL+"/v1/subscriptions", "", "Authorization", "Bearer zoo1:admin").StatusCode)
}
