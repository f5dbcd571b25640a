package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/alert"
	"github.com/probekit/linkmonitor/internal/config"
	"github.com/probekit/linkmonitor/internal/history"
	"github.com/probekit/linkmonitor/internal/ledger"
	"github.com/probekit/linkmonitor/internal/logging"
	"github.com/probekit/linkmonitor/internal/notify"
	"github.com/probekit/linkmonitor/internal/probe"
	"github.com/probekit/linkmonitor/internal/repo"
	"github.com/probekit/linkmonitor/internal/repo/memory"
	"github.com/probekit/linkmonitor/internal/repo/postgres"
	"github.com/probekit/linkmonitor/internal/scheduler"
)

// Runs one credit-gated monitoring cycle to completion. Exit 0 on a
// completed cycle, 1 on a fatal cycle-level error. Invoked by an
// external scheduler (cron or similar) once per cycle.
func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var (
		accounts  repo.AccountStore
		endpoints repo.EndpointStore
		histStore repo.HistoryStore
	)
	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("store_connect_failed", zap.Error(err))
			os.Exit(1)
		}
		defer store.Close()
		accounts, endpoints, histStore = store, store, store
	} else {
		store := memory.New()
		accounts, endpoints, histStore = store, store, store
		logger.Warn("using_memory_store")
	}

	var notifiers notify.Multi
	if m := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom); m != nil {
		notifiers = append(notifiers, m)
	}
	if w := notify.NewWebhook(cfg.AlertWebhookURL); w != nil {
		notifiers = append(notifiers, w)
	}
	if len(notifiers) == 0 {
		logger.Warn("no_notifier_configured")
	}

	cycle := &scheduler.Cycle{
		Logger:      logger,
		Accounts:    accounts,
		Endpoints:   endpoints,
		Prober:      probe.NewProber(),
		Ledger:      ledger.New(accounts, cfg.UnitPrice, logger),
		History:     history.New(histStore, cfg.HistoryCap, logger),
		Gate:        alert.NewGate(notifiers, logger),
		BaseTimeout: cfg.BaseTimeout,
		Pacing: scheduler.Pacing{
			ProbeDelay:           cfg.ProbeDelay,
			NewGroupProbeDelay:   cfg.NewGroupProbeDelay,
			AccountDelay:         cfg.AccountDelay,
			NewGroupAccountDelay: cfg.NewGroupAccountDelay,
			NotifyDelay:          cfg.NotifyDelay,
		},
	}

	if err := cycle.Run(ctx); err != nil {
		logger.Error("cycle_fatal", zap.Error(err))
		os.Exit(1)
	}
}
