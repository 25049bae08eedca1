package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/pkg/metrics"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/pkg/version"
)

// metricsServer builds the side HTTP listener serving health and Prometheus
// metrics. It is separate from the MCP transport, which owns stdio.
func (s *Server) metricsServer() *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"version":     version.GetInfo(),
			"cache_stats": s.store.Stats(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return &http.Server{
		Addr:    s.cfg.Metrics.Addr,
		Handler: router,
	}
}
