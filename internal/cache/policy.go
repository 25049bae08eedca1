package cache

import (
	"strconv"
	"time"
)

// Default TTL tiers. Volatile account data expires fast, aggregate pool and
// network stats a bit slower, historical timeseries slowest.
const (
	defaultVolatileTTL   = 30 * time.Second
	defaultModerateTTL   = 60 * time.Second
	defaultHistoricalTTL = 300 * time.Second
)

// PolicyOverrides carries the raw per-tier TTL override strings and the global
// enabled flag as loaded from the environment. Empty strings mean "no override".
type PolicyOverrides struct {
	Enabled         string
	TTLOverview     string
	TTLWorkers      string
	TTLHistorical   string
	TTLPoolStats    string
	TTLNetworkStats string
}

// Policy maps each resource kind to its TTL and answers whether a kind should
// be cached at all. Built once at startup from configuration and injected where
// needed; it has no mutable state.
type Policy struct {
	enabled bool
	ttls    map[Kind]time.Duration
}

// NewPolicy builds a Policy from defaults plus overrides. A malformed or
// negative override silently falls back to the compiled-in default; the
// literal "0" is honored and disables caching for the kinds it covers. The
// global flag is enabled unless the string is exactly "false".
func NewPolicy(o PolicyOverrides) *Policy {
	overview := parseTTL(o.TTLOverview, defaultVolatileTTL)
	workers := parseTTL(o.TTLWorkers, defaultVolatileTTL)
	historical := parseTTL(o.TTLHistorical, defaultHistoricalTTL)
	poolStats := parseTTL(o.TTLPoolStats, defaultModerateTTL)
	networkStats := parseTTL(o.TTLNetworkStats, defaultModerateTTL)

	return &Policy{
		enabled: o.Enabled != "false",
		ttls: map[Kind]time.Duration{
			KindUserOverview:   overview,
			KindWorkersList:    workers,
			KindWorkerDetails:  workers,
			KindWorkerHashrate: historical,
			KindUserRewards:    historical,
			KindPoolStats:      poolStats,
			KindNetworkStats:   networkStats,
		},
	}
}

// TTL returns the time-to-live for a kind. Unknown kinds get the volatile
// default.
func (p *Policy) TTL(kind Kind) time.Duration {
	if ttl, ok := p.ttls[kind]; ok {
		return ttl
	}
	return defaultVolatileTTL
}

// Enabled reports the global caching flag.
func (p *Policy) Enabled() bool {
	return p.enabled
}

// ShouldCache reports whether entries of this kind are cached: the global flag
// must be on and the kind's TTL must be positive.
func (p *Policy) ShouldCache(kind Kind) bool {
	return p.enabled && p.TTL(kind) > 0
}

// parseTTL interprets an override string as a number of seconds. Unset, empty,
// non-numeric and negative values fall back to the default; "0" is a valid
// value meaning "never cache".
func parseTTL(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
