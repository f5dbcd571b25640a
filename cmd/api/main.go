package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/config"
	"github.com/probekit/linkmonitor/internal/httpapi"
	"github.com/probekit/linkmonitor/internal/logging"
	"github.com/probekit/linkmonitor/internal/repo"
	"github.com/probekit/linkmonitor/internal/repo/memory"
	"github.com/probekit/linkmonitor/internal/repo/postgres"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var (
		accounts repo.AccountStore
		hist     repo.HistoryStore
	)
	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("store_connect_failed", zap.Error(err))
			os.Exit(1)
		}
		defer store.Close()
		accounts, hist = store, store
	} else {
		store := memory.New()
		accounts, hist = store, store
		logger.Warn("using_memory_store")
	}

	api := httpapi.NewServer(logger, accounts, hist)

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
