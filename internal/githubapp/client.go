// Package githubapp authenticates against GitHub either with a plain token
// or as a GitHub App, minting and caching installation tokens.
package githubapp

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/devteam-agent/pkg/tokenstore"
)

// Auth produces authenticated go-github clients.
type Auth interface {
	Client(ctx context.Context) (*github.Client, error)
}

// TokenAuth authenticates with a static personal access token.
type TokenAuth struct {
	client *github.Client
}

// NewTokenAuth creates a token-based Auth.
func NewTokenAuth(token string) *TokenAuth {
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token, base: http.DefaultTransport},
		Timeout:   30 * time.Second,
	}
	return &TokenAuth{client: github.NewClient(httpClient)}
}

func (a *TokenAuth) Client(_ context.Context) (*github.Client, error) {
	return a.client, nil
}

// AppAuth authenticates as a GitHub App installation. Installation tokens
// are minted via a signed JWT and cached until shortly before expiry.
type AppAuth struct {
	appID          int64
	installationID int64
	privateKey     *rsa.PrivateKey
	tokenStore     tokenstore.Store
	httpClient     *http.Client
	logger         zerolog.Logger
}

const (
	installationTokenKey = "github_installation_token"
	installationTokenTTL = 55 * time.Minute // tokens last 1 hour, refresh at 55 min
)

// NewAppAuth creates a GitHub App Auth from a PEM private key file.
func NewAppAuth(appID, installationID int64, privateKeyPath string, store tokenstore.Store, logger zerolog.Logger) (*AppAuth, error) {
	keyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	return NewAppAuthFromKeyBytes(appID, installationID, keyData, store, logger)
}

// NewAppAuthFromKeyBytes creates an AppAuth from PEM key bytes (useful for testing).
func NewAppAuthFromKeyBytes(appID, installationID int64, keyData []byte, store tokenstore.Store, logger zerolog.Logger) (*AppAuth, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	return &AppAuth{
		appID:          appID,
		installationID: installationID,
		privateKey:     key,
		tokenStore:     store,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		logger:         logger.With().Str("component", "githubapp").Logger(),
	}, nil
}

// Client returns a github.Client authenticated with an installation token.
func (a *AppAuth) Client(ctx context.Context) (*github.Client, error) {
	token, err := a.installationToken(ctx)
	if err != nil {
		return nil, err
	}
	return github.NewClient(&http.Client{
		Transport: &tokenTransport{token: token, base: http.DefaultTransport},
		Timeout:   30 * time.Second,
	}), nil
}

// generateJWT creates the App JWT used to mint installation tokens.
func (a *AppAuth) generateJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    fmt.Sprintf("%d", a.appID),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing JWT: %w", err)
	}
	return signed, nil
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "token "+t.token)
	return t.base.RoundTrip(req2)
}
