package githubapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// installationTokenResponse mirrors the GitHub API response.
type installationTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// installationToken returns a cached or freshly minted installation token.
func (a *AppAuth) installationToken(ctx context.Context) (string, error) {
	tok, err := a.tokenStore.Get(ctx, installationTokenKey)
	if err == nil {
		a.logger.Debug().Msg("using cached installation token")
		return tok.Value, nil
	}

	a.logger.Info().Msg("minting new installation token")
	jwtToken, err := a.generateJWT()
	if err != nil {
		return "", fmt.Errorf("generating JWT: %w", err)
	}

	url := fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", a.installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting installation token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("installation token request failed (status %d): %s", resp.StatusCode, body)
	}

	var tokenResp installationTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}

	if err := a.tokenStore.Set(ctx, installationTokenKey, tokenResp.Token, installationTokenTTL); err != nil {
		a.logger.Warn().Err(err).Msg("failed to cache installation token")
	}

	return tokenResp.Token, nil
}
