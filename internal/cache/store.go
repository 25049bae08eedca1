package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/pkg/metrics"
)

const (
	connectAttempts    = 3
	connectBackoffStep = 200 * time.Millisecond
	connectBackoffCap  = time.Second
	connectTimeout     = 2 * time.Second
)

// StoreConfig holds the Redis connection settings. Addr is either host:port or
// a redis:// URL.
type StoreConfig struct {
	Addr     string
	Password string
	DB       int
}

// Store wraps a Redis client with JSON serialization, lazy connection and
// fail-open semantics. No operation ever returns an error: the cache is an
// optimization, not a dependency, so every failure degrades to a miss or a
// no-op and is recorded in the counters.
type Store struct {
	cfg    StoreConfig
	logger *logrus.Logger

	mu         sync.Mutex
	client     *redis.Client
	connecting bool

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// NewStore creates a Store. No connection is attempted until the first
// operation.
func NewStore(cfg StoreConfig, logger *logrus.Logger) *Store {
	return &Store{cfg: cfg, logger: logger}
}

// Get looks up key and unmarshals the stored JSON into dest. It returns false
// on a miss and on every kind of failure.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	client, ok := s.conn(ctx)
	if !ok {
		s.miss()
		return false
	}

	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.miss()
		return false
	}
	if err != nil {
		s.miss()
		s.fail()
		s.logger.WithError(err).WithField("key", key).Warn("cache get failed")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.miss()
		s.fail()
		s.logger.WithError(err).WithField("key", key).Debug("cache entry undecodable, treating as miss")
		return false
	}

	s.hit()
	return true
}

// Set serializes value to JSON and stores it under key with the given TTL.
// Failures are swallowed; callers treat writes as fire-and-forget.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.fail()
		s.logger.WithError(err).WithField("key", key).Warn("cache value not serializable")
		return
	}

	client, ok := s.conn(ctx)
	if !ok {
		s.fail()
		return
	}

	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.fail()
		s.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// Delete removes key and reports whether an entry existed. Failures count as
// "nothing removed".
func (s *Store) Delete(ctx context.Context, key string) bool {
	client, ok := s.conn(ctx)
	if !ok {
		return false
	}

	removed, err := client.Del(ctx, key).Result()
	if err != nil {
		s.fail()
		s.logger.WithError(err).WithField("key", key).Warn("cache delete failed")
		return false
	}
	return removed > 0
}

// Flush removes every key in the store's database. Failures are swallowed.
func (s *Store) Flush(ctx context.Context) {
	client, ok := s.conn(ctx)
	if !ok {
		return
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		s.fail()
		s.logger.WithError(err).Warn("cache flush failed")
	}
}

// Stats returns a snapshot copy of the counters.
func (s *Store) Stats() Stats {
	hits := s.hits.Load()
	misses := s.misses.Load()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Errors:  s.errs.Load(),
		HitRate: computeHitRate(hits, misses),
	}
}

// Close releases the underlying connection, if one was ever established.
func (s *Store) Close() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client != nil {
		if err := client.Close(); err != nil {
			s.logger.WithError(err).Debug("cache close failed")
		}
	}
}

// conn returns the Redis client, dialing lazily on first use. While a connect
// attempt is in flight, concurrent callers are told "not connected" instead of
// queuing behind the dial: their operations degrade gracefully and the next
// call retries once the attempt has settled.
func (s *Store) conn(ctx context.Context) (*redis.Client, bool) {
	s.mu.Lock()
	if s.client != nil {
		client := s.client
		s.mu.Unlock()
		return client, true
	}
	if s.connecting {
		s.mu.Unlock()
		return nil, false
	}
	s.connecting = true
	s.mu.Unlock()

	client := s.dial(ctx)

	s.mu.Lock()
	s.connecting = false
	s.client = client
	s.mu.Unlock()

	return client, client != nil
}

// dial attempts the connection with a bounded, capped linear backoff.
func (s *Store) dial(ctx context.Context) *redis.Client {
	opts, err := s.options()
	if err != nil {
		s.fail()
		s.logger.WithError(err).WithField("addr", redactAddr(s.cfg.Addr)).Error("invalid cache address")
		return nil
	}

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			s.logger.WithField("addr", redactAddr(s.cfg.Addr)).Debug("cache connected")
			return client
		}

		_ = client.Close()
		s.fail()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"addr":    redactAddr(s.cfg.Addr),
			"attempt": attempt,
		}).Warn("cache connection failed")

		if attempt < connectAttempts {
			backoff := connectBackoffStep * time.Duration(attempt)
			if backoff > connectBackoffCap {
				backoff = connectBackoffCap
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
		}
	}
	return nil
}

func (s *Store) options() (*redis.Options, error) {
	if isRedisURL(s.cfg.Addr) {
		opts, err := redis.ParseURL(s.cfg.Addr)
		if err != nil {
			return nil, err
		}
		if s.cfg.Password != "" {
			opts.Password = s.cfg.Password
		}
		opts.DialTimeout = connectTimeout
		return opts, nil
	}
	return &redis.Options{
		Addr:        s.cfg.Addr,
		Password:    s.cfg.Password,
		DB:          s.cfg.DB,
		DialTimeout: connectTimeout,
	}, nil
}

func (s *Store) hit() {
	s.hits.Add(1)
	metrics.CacheHits.Inc()
}

func (s *Store) miss() {
	s.misses.Add(1)
	metrics.CacheMisses.Inc()
}

func (s *Store) fail() {
	s.errs.Add(1)
	metrics.CacheErrors.Inc()
}

func isRedisURL(addr string) bool {
	u, err := url.Parse(addr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// redactAddr strips any password component from a connection address before it
// reaches the logs.
func redactAddr(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.User == nil {
		return addr
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
