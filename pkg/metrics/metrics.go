package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Create a custom registry so the default one's noise stays out of /metrics.
var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Cache counters, incremented by the cache store alongside its local stats.
	CacheHits = promauto.With(registerer).NewCounter(prometheus.CounterOpts{
		Name: "braiins_mcp_cache_hits_total",
		Help: "Total number of cache hits",
	})
	CacheMisses = promauto.With(registerer).NewCounter(prometheus.CounterOpts{
		Name: "braiins_mcp_cache_misses_total",
		Help: "Total number of cache misses",
	})
	CacheErrors = promauto.With(registerer).NewCounter(prometheus.CounterOpts{
		Name: "braiins_mcp_cache_errors_total",
		Help: "Total number of cache operation failures",
	})

	// Upstream API counters.
	UpstreamRequests = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "braiins_mcp_upstream_requests_total",
			Help: "Upstream API requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)
	UpstreamRetries = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "braiins_mcp_upstream_retries_total",
			Help: "Upstream API retry attempts by endpoint",
		},
		[]string{"endpoint"},
	)

	// Tool dispatch metrics.
	ToolCalls = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "braiins_mcp_tool_calls_total",
			Help: "MCP tool invocations by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
	ToolDuration = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "braiins_mcp_tool_duration_ms",
			Help:    "MCP tool handler duration in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"tool"},
	)
)

func init() {
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Registry returns the registry backing all collectors, for the /metrics
// handler.
func Registry() *prometheus.Registry {
	return registry
}
