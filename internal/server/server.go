// Package server assembles the MCP server: cache store, TTL policy, upstream
// client, orchestrator and tool registry, plus the optional metrics listener.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/braiins"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/cache"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/config"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/monitor"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/tools"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/pkg/version"
)

const serverName = "braiins-pool-monitor"

// Server is the assembled application.
type Server struct {
	cfg    *config.Config
	logger *logrus.Logger
	store  *cache.Store
	mcp    *mcpserver.MCPServer
}

// New wires all components. Nothing connects to Redis or the upstream here;
// both happen lazily on first use.
func New(cfg *config.Config, logger *logrus.Logger) *Server {
	store := cache.NewStore(cache.StoreConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)

	policy := cache.NewPolicy(cache.PolicyOverrides{
		Enabled:         cfg.Cache.Enabled,
		TTLOverview:     cfg.Cache.TTLOverview,
		TTLWorkers:      cfg.Cache.TTLWorkers,
		TTLHistorical:   cfg.Cache.TTLHistorical,
		TTLPoolStats:    cfg.Cache.TTLPoolStats,
		TTLNetworkStats: cfg.Cache.TTLNetworkStats,
	})

	client := braiins.NewClient(braiins.Config{
		BaseURL:        cfg.API.BaseURL,
		Token:          cfg.API.Token,
		Timeout:        cfg.API.Timeout,
		RetryMax:       cfg.API.RetryMax,
		RetryBaseDelay: cfg.API.RetryBaseDelay,
	}, logger)

	svc := monitor.NewService(store, policy, client, logger)

	mcp := mcpserver.NewMCPServer(serverName, version.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	tools.NewRegistry(svc, logger).Register(mcp)

	return &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
		mcp:    mcp,
	}
}

// Run serves MCP over stdio until ctx is cancelled or stdin closes. When a
// metrics address is configured, the health/metrics listener runs alongside.
func (s *Server) Run(ctx context.Context) error {
	var metricsSrv *http.Server
	if s.cfg.Metrics.Addr != "" {
		metricsSrv = s.metricsServer()
		go func() {
			s.logger.WithField("addr", s.cfg.Metrics.Addr).Info("metrics listener started")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.WithError(err).Error("metrics listener failed")
			}
		}()
	}

	s.logger.WithFields(logrus.Fields{
		"name":  serverName,
		"build": version.GetInfo().String(),
	}).Info("serving MCP on stdio")

	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(s.logger.WriterLevel(logrus.ErrorLevel), "", 0))
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
			s.logger.WithError(serr).Warn("metrics listener shutdown failed")
		}
	}
	s.store.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
