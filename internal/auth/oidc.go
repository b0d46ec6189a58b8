package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/spk-docs/doctracker/internal/config"
	"github.com/spk-docs/doctracker/pkg/logger"
	"github.com/spk-docs/doctracker/pkg/middleware"
)

// OIDCVerifier wraps the OIDC provider and token verifier
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider at issuer and verifies ID tokens
// issued to clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// NewVerifier picks the verifier for mutating routes: Keycloak when
// configured, otherwise HMAC tokens when a JWT secret is set. It returns nil
// when neither is configured.
func NewVerifier(ctx context.Context, cfg *config.Config) (middleware.Verifier, error) {
	kc := cfg.Keycloak
	if kc.URL != "" && kc.ClientID != "" {
		issuer := kc.URL
		if kc.Realm != "" {
			issuer = strings.TrimRight(kc.URL, "/") + "/realms/" + kc.Realm
		}
		v, err := NewOIDCVerifier(ctx, issuer, kc.ClientID)
		if err != nil {
			return nil, err
		}
		logger.Infof("OIDC verifier ready for issuer %s", issuer)
		return v, nil
	}
	if cfg.JWT.Secret != "" {
		logger.Infof("HMAC token verifier enabled")
		return NewHMACVerifier(cfg.JWT.Secret), nil
	}
	return nil, nil
}
