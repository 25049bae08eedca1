package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/config"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/server"
)

func main() {
	// Initialize logger. Stdout carries the MCP JSON-RPC stream, so all
	// logging goes to stderr.
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
}
