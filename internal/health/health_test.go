package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAll(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("slack", func(ctx context.Context) Status { return StatusOK })
	c.Register("github", func(ctx context.Context) Status { return StatusDown })

	results := c.RunAll(context.Background())
	assert.Equal(t, StatusOK, results["slack"])
	assert.Equal(t, StatusDown, results["github"])
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadinessHandler_AllOK(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("slack", func(ctx context.Context) Status { return StatusOK })

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ready  bool              `json:"ready"`
		Checks map[string]Status `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.Equal(t, StatusOK, body.Checks["slack"])
}

func TestReadinessHandler_DependencyDown(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("github", func(ctx context.Context) Status { return StatusDown })

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
