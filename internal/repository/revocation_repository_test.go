package repository

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/taskflow/internal/infrastructure/redis"
	"github.com/yourorg/taskflow/internal/reliability/circuitbreaker"
	"github.com/yourorg/taskflow/internal/security/auth"
)

// unreachableRedis points at a port nothing listens on
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	c := redis.NewClientFromOptions(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRevocationFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	local := auth.NewMemoryRevocationList()
	repo := NewRedisRevocationRepository(unreachableRedis(t), local, nil)

	require.NoError(t, repo.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsRevoked(ctx, "jti-unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 1, repo.Len())
}

func TestRevocationBreakerOpensOnRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	repo := NewRedisRevocationRepository(unreachableRedis(t), nil, nil)

	for i := 0; i < 3; i++ {
		_, err := repo.IsRevoked(ctx, "jti-x")
		require.NoError(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, repo.breaker.GetState())
}

func TestRevokeIgnoresExpiredTokens(t *testing.T) {
	ctx := context.Background()
	repo := NewRedisRevocationRepository(unreachableRedis(t), nil, nil)

	require.NoError(t, repo.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))
	assert.Equal(t, 0, repo.Len())
}
