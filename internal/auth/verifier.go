// Package auth verifies bearer tokens presented to the API.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dronefeed/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
)

// Principal is the caller identity carried by a token.
type Principal struct {
	Tenant string
	Role   string
}

// Verifier checks bearer tokens. Modes: dev accepts "tenant:role" verbatim,
// hmac accepts HS256 JWTs signed with the shared secret.
type Verifier struct {
	Mode        string
	HMACSecret  []byte
	TenantClaim string
	RoleClaim   string
	now         func() time.Time
}

// NewVerifier returns nil in header mode, where no tokens are checked.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	if cfg.Mode == "" || cfg.Mode == "header" {
		return nil
	}
	return &Verifier{
		Mode:        cfg.Mode,
		HMACSecret:  []byte(cfg.HMACSecret),
		TenantClaim: cfg.TenantClaim,
		RoleClaim:   cfg.RoleClaim,
		now:         time.Now,
	}
}

func (v *Verifier) Verify(token string) (Principal, error) {
	switch v.Mode {
	case "dev":
		tenant, role, ok := strings.Cut(token, ":")
		if !ok || tenant == "" || role == "" {
			return Principal{}, fmt.Errorf("%w: expected tenant:role", ErrInvalidToken)
		}
		return Principal{Tenant: tenant, Role: strings.ToLower(role)}, nil
	case "hmac":
		return v.verifyHS256(token)
	}
	return Principal{}, fmt.Errorf("unsupported auth mode %q", v.Mode)
}

func (v *Verifier) verifyHS256(token string) (Principal, error) {
	segs := strings.Split(token, ".")
	if len(segs) != 3 {
		return Principal{}, fmt.Errorf("%w: not a JWT", ErrInvalidToken)
	}
	var hdr struct {
		Alg string `json:"alg"`
	}
	if err := decodeSegment(segs[0], &hdr); err != nil {
		return Principal{}, err
	}
	if hdr.Alg != "HS256" {
		return Principal{}, fmt.Errorf("%w: alg %q", ErrInvalidToken, hdr.Alg)
	}
	sig, err := base64.RawURLEncoding.DecodeString(segs[2])
	if err != nil {
		return Principal{}, fmt.Errorf("%w: signature encoding", ErrInvalidToken)
	}
	if !hmac.Equal(Sign(v.HMACSecret, segs[0]+"."+segs[1]), sig) {
		return Principal{}, fmt.Errorf("%w: bad signature", ErrInvalidToken)
	}

	var claims map[string]any
	if err := decodeSegment(segs[1], &claims); err != nil {
		return Principal{}, err
	}
	if exp, ok := claims["exp"].(float64); ok && v.now().Unix() >= int64(exp) {
		return Principal{}, ErrExpired
	}
	tenant, _ := claims[v.TenantClaim].(string)
	role, _ := claims[v.RoleClaim].(string)
	if tenant == "" {
		return Principal{}, fmt.Errorf("%w: missing %s claim", ErrInvalidToken, v.TenantClaim)
	}
	if role == "" {
		role = "planner"
	}
	return Principal{Tenant: tenant, Role: strings.ToLower(role)}, nil
}

// Sign returns the HS256 MAC of signingInput.
func Sign(secret []byte, signingInput string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signingInput))
	return mac.Sum(nil)
}

func decodeSegment(seg string, v any) error {
	b, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return fmt.Errorf("%w: segment encoding", ErrInvalidToken)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
