package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/probe"
	"github.com/probekit/linkmonitor/internal/repo"
)

// Keepalive is the flat operating mode: probe every active endpoint
// once, in concurrent batches, with no credit gating, history or mail.
// It shares no mutable state with the credit-gated Cycle.
type Keepalive struct {
	Logger     *zap.Logger
	Endpoints  repo.EndpointStore
	Prober     Prober
	BatchSize  int
	BatchDelay time.Duration

	// BaseTimeout overrides the per-attempt timeout; zero keeps the
	// default. Keep-alive always probes on the established schedule.
	BaseTimeout time.Duration
}

func NewKeepalive(logger *zap.Logger, eps repo.EndpointStore, p Prober, batchSize int, batchDelay time.Duration) *Keepalive {
	if batchSize < 1 {
		batchSize = 5
	}
	return &Keepalive{
		Logger:     logger,
		Endpoints:  eps,
		Prober:     p,
		BatchSize:  batchSize,
		BatchDelay: batchDelay,
	}
}

// Run probes all endpoints in creation order, at most BatchSize at a
// time, pausing BatchDelay between batches. An error listing endpoints
// is fatal; per-endpoint failures only show up in the summary.
func (k *Keepalive) Run(ctx context.Context) error {
	eps, err := k.Endpoints.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("keepalive: list endpoints: %w", err)
	}
	if len(eps) == 0 {
		k.Logger.Info("keepalive_no_endpoints")
		return nil
	}

	started := time.Now()
	k.Logger.Info("keepalive_started", zap.Int("endpoints", len(eps)))

	pol := probe.PolicyFor(false, k.BaseTimeout)
	results := make([]domain.ProbeResult, len(eps))

	for i := 0; i < len(eps); i += k.BatchSize {
		end := i + k.BatchSize
		if end > len(eps) {
			end = len(eps)
		}

		var wg sync.WaitGroup
		for j := i; j < end; j++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				e := eps[idx]
				res := k.Prober.Probe(ctx, e.URL, pol)
				res.EndpointID = e.ID
				results[idx] = res

				count := e.SuccessCount
				if res.Success() {
					count++
				}
				if err := k.Endpoints.UpdateStats(ctx, e.ID, count, res.CheckedAt); err != nil {
					k.Logger.Warn("endpoint_stats_update_failed",
						zap.String("endpoint_id", string(e.ID)),
						zap.Error(err),
					)
				}
			}(j)
		}
		wg.Wait()

		if end < len(eps) {
			time.Sleep(k.BatchDelay)
		}
	}

	var ok, failed int
	for _, r := range results {
		if r.Success() {
			ok++
		} else {
			failed++
			k.Logger.Warn("keepalive_probe_failed",
				zap.String("endpoint_id", string(r.EndpointID)),
				zap.String("url", r.URL),
				zap.String("outcome", string(r.Outcome)),
				zap.String("reason", r.Reason),
			)
		}
	}
	k.Logger.Info("keepalive_completed",
		zap.Int("successful", ok),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}
