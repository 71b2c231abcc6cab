package slack

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	r := NewRateLimiter(3, time.Minute)

	assert.True(t, r.Allow("U1"))
	assert.True(t, r.Allow("U1"))
	assert.True(t, r.Allow("U1"))
	assert.False(t, r.Allow("U1"))
}

func TestRateLimiter_PerKeyIsolation(t *testing.T) {
	r := NewRateLimiter(1, time.Minute)

	assert.True(t, r.Allow("U1"))
	assert.False(t, r.Allow("U1"))
	assert.True(t, r.Allow("U2"))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	r := NewRateLimiter(1, 10*time.Millisecond)

	assert.True(t, r.Allow("U1"))
	assert.False(t, r.Allow("U1"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, r.Allow("U1"))
}

func TestMiddleware_CheckRateLimit(t *testing.T) {
	m := NewMiddleware(zerolog.Nop(), 2, time.Minute)

	assert.True(t, m.CheckRateLimit("U1"))
	assert.True(t, m.CheckRateLimit("U1"))
	assert.False(t, m.CheckRateLimit("U1"))
}
