// Package api implements the HTTP surface of the dronefeed planning service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"dronefeed/internal/auth"
)

const (
	defaultTenant = "t_default"
	roleAdmin     = "admin"
)

type Principal struct {
	Tenant string
	Role   string // admin, planner
}

type principalKey struct{}

// Paths reachable without a token when a verifier is configured.
var publicPaths = map[string]bool{
	"/healthz":      true,
	"/readyz":       true,
	"/metrics":      true,
	"/v1/version":   true,
	"/openapi.yaml": true,
	"/openapi.json": true,
	"/docs":         true,
}

// authenticate verifies the bearer token on every non-public request and
// stores the resulting principal on the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	if s.Auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		tok, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token", r.URL.Path)
			return
		}
		p, err := s.Auth.Verify(tok)
		if err != nil {
			s.Log.Debug("token rejected", slog.Any("error", err))
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		// Websocket and EventSource clients pass the token as a query parameter.
		if t := r.URL.Query().Get("access_token"); t != "" {
			return t, true
		}
		return "", false
	}
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || tok == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

// getPrincipal returns the verified token principal, or reads tenant and
// role from the X-Tenant-Id and X-Role headers when no verifier is set.
func (s *Server) getPrincipal(r *http.Request) Principal {
	if p, ok := r.Context().Value(principalKey{}).(auth.Principal); ok {
		return Principal{Tenant: p.Tenant, Role: p.Role}
	}
	tenant := r.Header.Get("X-Tenant-Id")
	if tenant == "" {
		tenant = defaultTenant
	}
	role := r.Header.Get("X-Role")
	if role == "" {
		role = roleAdmin
	}
	return Principal{Tenant: tenant, Role: role}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == roleAdmin }
