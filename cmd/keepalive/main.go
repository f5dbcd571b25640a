package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/config"
	"github.com/probekit/linkmonitor/internal/logging"
	"github.com/probekit/linkmonitor/internal/probe"
	"github.com/probekit/linkmonitor/internal/repo"
	"github.com/probekit/linkmonitor/internal/repo/memory"
	"github.com/probekit/linkmonitor/internal/repo/postgres"
	"github.com/probekit/linkmonitor/internal/scheduler"
)

// Runs one flat keep-alive pass: every active endpoint is probed once,
// in concurrent batches, with no credit gating or alerting. Meant for
// keeping idle-suspended services warm.
func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var endpoints repo.EndpointStore
	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("store_connect_failed", zap.Error(err))
			os.Exit(1)
		}
		defer store.Close()
		endpoints = store
	} else {
		endpoints = memory.New()
		logger.Warn("using_memory_store")
	}

	k := scheduler.NewKeepalive(logger, endpoints, probe.NewProber(),
		cfg.KeepaliveBatchSize, cfg.KeepaliveBatchDelay)
	k.BaseTimeout = cfg.BaseTimeout
	if err := k.Run(ctx); err != nil {
		logger.Error("keepalive_fatal", zap.Error(err))
		os.Exit(1)
	}
}
