// Package monitor composes the cache key builder, TTL policy, cache store and
// upstream client into the cache-aside read path used by every tool.
package monitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/braiins"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/cache"
)

// cacheWriteTimeout bounds the detached fire-and-forget write, which outlives
// the caller's context.
const cacheWriteTimeout = 5 * time.Second

// Store is the slice of the cache store the orchestrator needs. Both methods
// are fail-open: Get answers false on any failure and Set swallows errors.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// PoolAPI is the upstream client surface, one method per resource kind.
type PoolAPI interface {
	GetUserOverview(ctx context.Context) (*braiins.UserOverview, error)
	GetWorkers(ctx context.Context) (*braiins.WorkersList, error)
	GetWorkerDetails(ctx context.Context, worker string) (*braiins.WorkerDetails, error)
	GetWorkerHashrate(ctx context.Context, worker string, params map[string]string) (*braiins.WorkerHashrate, error)
	GetUserRewards(ctx context.Context, params map[string]string) (*braiins.UserRewards, error)
	GetPoolStats(ctx context.Context) (*braiins.PoolStats, error)
	GetNetworkStats(ctx context.Context) (*braiins.NetworkStats, error)
}

// Service serves every resource kind cache-first. A cache hit is the only path
// that skips the upstream call; cache trouble of any sort falls through to the
// upstream and never surfaces to the caller.
type Service struct {
	store  Store
	policy *cache.Policy
	api    PoolAPI
	logger *logrus.Logger
}

// NewService wires the orchestrator. All collaborators are injected; the
// service keeps no other state.
func NewService(store Store, policy *cache.Policy, api PoolAPI, logger *logrus.Logger) *Service {
	return &Service{store: store, policy: policy, api: api, logger: logger}
}

// UserOverview returns the account profile.
func (s *Service) UserOverview(ctx context.Context) (*braiins.UserOverview, error) {
	return lookup(ctx, s, cache.KindUserOverview, "", nil, s.api.GetUserOverview)
}

// Workers returns the full worker roster.
func (s *Service) Workers(ctx context.Context) (*braiins.WorkersList, error) {
	return lookup(ctx, s, cache.KindWorkersList, "", nil, s.api.GetWorkers)
}

// WorkerDetails returns a single worker's state.
func (s *Service) WorkerDetails(ctx context.Context, worker string) (*braiins.WorkerDetails, error) {
	return lookup(ctx, s, cache.KindWorkerDetails, worker, nil, func(ctx context.Context) (*braiins.WorkerDetails, error) {
		return s.api.GetWorkerDetails(ctx, worker)
	})
}

// WorkerHashrate returns the daily hash rate timeseries for a worker.
func (s *Service) WorkerHashrate(ctx context.Context, worker string, params map[string]string) (*braiins.WorkerHashrate, error) {
	return lookup(ctx, s, cache.KindWorkerHashrate, worker, asKeyParams(params), func(ctx context.Context) (*braiins.WorkerHashrate, error) {
		return s.api.GetWorkerHashrate(ctx, worker, params)
	})
}

// UserRewards returns the daily reward history.
func (s *Service) UserRewards(ctx context.Context, params map[string]string) (*braiins.UserRewards, error) {
	return lookup(ctx, s, cache.KindUserRewards, "", asKeyParams(params), func(ctx context.Context) (*braiins.UserRewards, error) {
		return s.api.GetUserRewards(ctx, params)
	})
}

// PoolStats returns pool-wide aggregates.
func (s *Service) PoolStats(ctx context.Context) (*braiins.PoolStats, error) {
	return lookup(ctx, s, cache.KindPoolStats, "", nil, s.api.GetPoolStats)
}

// NetworkStats returns Bitcoin network aggregates.
func (s *Service) NetworkStats(ctx context.Context) (*braiins.NetworkStats, error) {
	return lookup(ctx, s, cache.KindNetworkStats, "", nil, s.api.GetNetworkStats)
}

// lookup is the cache-aside sequence: build the key, try the cache, fall back
// to the upstream, then repopulate the cache without making the caller wait.
// Concurrent misses for the same key each fetch upstream independently; the
// redundant writes are harmless and last-writer-wins.
func lookup[T any](ctx context.Context, s *Service, kind cache.Kind, identifier string, params map[string]interface{}, fetch func(context.Context) (T, error)) (T, error) {
	key := cache.BuildKey(kind, identifier, params)
	cacheable := s.policy.ShouldCache(kind)

	if cacheable {
		var cached T
		if s.store.Get(ctx, key, &cached) {
			s.logger.WithFields(logrus.Fields{"kind": kind, "key": key}).Debug("cache hit")
			return cached, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if cacheable {
		ttl := s.policy.TTL(kind)
		go func() {
			// Detached from the caller's context: the response has already
			// been returned by the time this write lands or fails.
			wctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
			defer cancel()
			s.store.Set(wctx, key, value, ttl)
		}()
	}

	return value, nil
}

// asKeyParams widens the string params to the key builder's value type.
func asKeyParams(params map[string]string) map[string]interface{} {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
