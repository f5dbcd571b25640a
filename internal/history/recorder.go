package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/repo"
)

// DefaultCap is the number of latency samples retained per endpoint.
// Downstream only needs a recent-window trend, so a hard cap beats an
// ever-growing table.
const DefaultCap = 5

// Recorder maintains the bounded latency window. Eviction is strictly
// FIFO by creation time, never by latency.
type Recorder struct {
	store repo.HistoryStore
	cap   int
	log   *zap.Logger
}

func New(store repo.HistoryStore, capacity int, log *zap.Logger) *Recorder {
	if capacity < 1 {
		capacity = DefaultCap
	}
	return &Recorder{store: store, cap: capacity, log: log}
}

// Record inserts one latency sample for the endpoint, evicting the
// oldest entries first so the retained count never exceeds the cap.
// Eviction and insert are two store calls; a crash in between loses at
// most the one sample being written, never over-retains.
func (r *Recorder) Record(ctx context.Context, id domain.EndpointID, latencyMS float64) error {
	entries, err := r.store.List(ctx, id)
	if err != nil {
		return fmt.Errorf("history: list %s: %w", id, err)
	}

	if excess := len(entries) - (r.cap - 1); excess > 0 {
		ids := make([]int64, 0, excess)
		for _, e := range entries[:excess] {
			ids = append(ids, e.ID)
		}
		if err := r.store.Delete(ctx, ids); err != nil {
			return fmt.Errorf("history: evict %s: %w", id, err)
		}
		r.log.Debug("history_evicted",
			zap.String("endpoint_id", string(id)),
			zap.Int("evicted", excess),
		)
	}

	if err := r.store.Insert(ctx, id, latencyMS, time.Now().UTC()); err != nil {
		return fmt.Errorf("history: insert %s: %w", id, err)
	}
	return nil
}
