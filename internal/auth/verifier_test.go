package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefeed/internal/config"
)

func token(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()
	hdr := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	input := hdr + "." + base64.RawURLEncoding.EncodeToString(body)
	return input + "." + base64.RawURLEncoding.EncodeToString(Sign([]byte(secret), input))
}

func hmacVerifier() *Verifier {
	return NewVerifier(config.AuthConfig{Mode: "hmac", HMACSecret: "s3cret", TenantClaim: "tenant", RoleClaim: "role"})
}

func TestNewVerifier_HeaderModeIsNil(t *testing.T) {
	assert.Nil(t, NewVerifier(config.AuthConfig{Mode: "header"}))
	assert.Nil(t, NewVerifier(config.AuthConfig{}))
}

func TestVerify_Dev(t *testing.T) {
	v := NewVerifier(config.AuthConfig{Mode: "dev"})
	p, err := v.Verify("zoo1:Admin")
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "zoo1", Role: "admin"}, p)

	_, err = v.Verify("zoo1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_HMAC(t *testing.T) {
	v := hmacVerifier()
	p, err := v.Verify(token(t, "s3cret", map[string]any{"tenant": "zoo1", "role": "admin"}))
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "zoo1", Role: "admin"}, p)

	p, err = v.Verify(token(t, "s3cret", map[string]any{"tenant": "zoo1"}))
	require.NoError(t, err)
	assert.Equal(t, "planner", p.Role)
}

func TestVerify_HMACRejects(t *testing.T) {
	v := hmacVerifier()
	v.now = func() time.Time { return time.Unix(2000, 0) }
	cases := map[string]string{
		"wrong secret":  token(t, "other", map[string]any{"tenant": "zoo1"}),
		"missing claim": token(t, "s3cret", map[string]any{"role": "admin"}),
		"not a jwt":     "abc",
		"bad encoding":  "!!.!!.!!",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := v.Verify(token(t, "s3cret", map[string]any{"tenant": "zoo1", "exp": 1000}))
	assert.ErrorIs(t, err, ErrExpired)
}
