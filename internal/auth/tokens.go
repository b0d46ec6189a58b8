package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spk-docs/doctracker/pkg/middleware"
)

// Principal is who a locally issued token is for.
type Principal struct {
	Subject string
	Name    string
}

// IssueToken creates an HS256 access token for p, valid for ttl from now.
func IssueToken(secret string, p Principal, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if p.Subject == "" {
		return "", errors.New("token subject is empty")
	}
	claims := jwt.MapClaims{
		"sub": p.Subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if p.Name != "" {
		claims["name"] = p.Name
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// claimsToken exposes verified JWT claims to the middleware.
type claimsToken struct {
	claims jwt.MapClaims
}

func (t *claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// HMACVerifier checks tokens produced by IssueToken.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("verify token: invalid claims")
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return nil, errors.New("verify token: exp claim required")
	}
	return &claimsToken{claims: claims}, nil
}
