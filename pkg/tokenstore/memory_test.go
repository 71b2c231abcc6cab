package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "gh:install:1", "ghs_abc", time.Minute))

	tok, err := s.Get(ctx, "gh:install:1")
	require.NoError(t, err)
	assert.Equal(t, "ghs_abc", tok.Value)
	assert.False(t, tok.IsExpired())
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryStore_GetExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", -time.Second))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "old", time.Minute))
	require.NoError(t, s.Set(ctx, "k", "new", time.Minute))

	tok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", tok.Value)
}
