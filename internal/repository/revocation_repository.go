package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/taskflow/internal/infrastructure/redis"
	"github.com/yourorg/taskflow/internal/observability/metrics"
	"github.com/yourorg/taskflow/internal/reliability/circuitbreaker"
	"github.com/yourorg/taskflow/internal/security/auth"
)

const revocationKeyPrefix = "taskflow:revoked:"

// RedisRevocationRepository stores revoked token ids in Redis so every
// server instance refuses them. Redis calls go through a circuit breaker;
// every revocation is also written to the in-process list, which answers
// lookups while Redis is unavailable.
type RedisRevocationRepository struct {
	redis    *redis.Client
	breaker  *circuitbreaker.CircuitBreaker
	fallback *auth.MemoryRevocationList
	logger   *slog.Logger
}

// NewRedisRevocationRepository creates a revocation repository
func NewRedisRevocationRepository(client *redis.Client, fallback *auth.MemoryRevocationList, logger *slog.Logger) *RedisRevocationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = auth.NewMemoryRevocationList()
	}

	breaker := circuitbreaker.NewCircuitBreaker(3, 1, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("redis revocation breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &RedisRevocationRepository{
		redis:    client,
		breaker:  breaker,
		fallback: fallback,
		logger:   logger,
	}
}

// Revoke marks tokenID revoked until its expiry
func (r *RedisRevocationRepository) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	if err := r.fallback.Revoke(ctx, tokenID, until); err != nil {
		return err
	}

	err := r.breaker.Execute(func() error {
		_, err := r.redis.SetNX(ctx, revocationKeyPrefix+tokenID, "1", ttl)
		return err
	})
	if err != nil {
		metrics.ObserveRevocation("redis", "fallback")
		r.logger.Warn("failed to store revocation in redis, kept in memory",
			slog.String("error", err.Error()),
		)
		return nil
	}

	metrics.ObserveRevocation("redis", "stored")
	return nil
}

// IsRevoked checks the local list first, then Redis
func (r *RedisRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if revoked, _ := r.fallback.IsRevoked(ctx, tokenID); revoked {
		return true, nil
	}

	var revoked bool
	err := r.breaker.Execute(func() error {
		var err error
		revoked, err = r.redis.Exists(ctx, revocationKeyPrefix+tokenID)
		return err
	})
	if err != nil {
		metrics.ObserveRevocation("redis", "lookup_fallback")
		r.logger.Debug("revocation lookup fell back to memory",
			slog.String("error", err.Error()),
		)
		return false, nil
	}
	return revoked, nil
}

// Purge forwards to the in-process list so the sweeper can trim it
func (r *RedisRevocationRepository) Purge() int {
	return r.fallback.Purge()
}

// Len reports the in-process list size
func (r *RedisRevocationRepository) Len() int {
	return r.fallback.Len()
}
