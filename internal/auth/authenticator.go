// Package auth provides authentication functionality for platform adapter
// access.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Authenticator attaches bearer credentials to outgoing platform adapter
// requests and exposes a stable per-credential identity used to key
// per-user caches and sessions (see internal/cache).
type Authenticator struct {
	source oauth2.TokenSource
	apiKey string
	logger *zap.Logger
}

// New creates an authenticator for the platform adapter.
//
// When tokenURL is non-empty, apiKey is treated as an OAuth2 client
// secret and exchanged for short-lived access tokens via the client
// credentials grant, refreshed automatically by oauth2.TokenSource.
// Otherwise apiKey is used directly as a long-lived bearer token, which
// is how most home-automation bridges issue credentials.
func New(apiKey, tokenURL string, logger *zap.Logger) (*Authenticator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("platform API key is required")
	}

	var source oauth2.TokenSource
	if tokenURL != "" {
		cfg := &clientcredentials.Config{
			ClientID:     "devicecore-mcp",
			ClientSecret: apiKey,
			TokenURL:     tokenURL,
		}
		source = cfg.TokenSource(context.Background())
		logger.Info("using client-credentials token source", zap.String("token_url", tokenURL))
	} else {
		source = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: apiKey,
			TokenType:   "Bearer",
		})
	}

	return &Authenticator{
		source: source,
		apiKey: apiKey,
		logger: logger,
	}, nil
}

// Authenticate adds an Authorization header to an outgoing request.
func (a *Authenticator) Authenticate(req *http.Request) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	token, err := a.source.Token()
	if err != nil {
		a.logger.Warn("authentication failed",
			zap.Error(err),
			zap.String("target_host", req.URL.Host),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		return fmt.Errorf("authentication failed: %w", err)
	}

	token.SetAuthHeader(req)

	a.logger.Debug("request authenticated",
		zap.String("target_host", req.URL.Host),
		zap.String("method", req.Method),
	)
	return nil
}

// GetToken retrieves the current bearer token, for health checks.
func (a *Authenticator) GetToken() (string, error) {
	token, err := a.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token.AccessToken, nil
}

// ValidateToken validates that a token can be obtained.
func (a *Authenticator) ValidateToken() error {
	_, err := a.GetToken()
	if err != nil {
		a.logger.Warn("token validation failed", zap.Error(err))
		return err
	}
	a.logger.Debug("token validation successful")
	return nil
}

// GetUserIdentity returns a stable identifier for the configured
// credential, used to key per-user state (command tracker, cache) when
// no richer principal is available from the transport.
func (a *Authenticator) GetUserIdentity() (string, error) {
	sum := sha256.Sum256([]byte(a.apiKey))
	return hex.EncodeToString(sum[:])[:16], nil
}
