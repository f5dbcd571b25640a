package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/probe"
	"github.com/probekit/linkmonitor/internal/repo/memory"
)

// gaugeProber tracks how many probes run at once.
type gaugeProber struct {
	mu      sync.Mutex
	current int32
	max     int32
	seen    []string
}

func (g *gaugeProber) Probe(ctx context.Context, url string, pol probe.Policy) domain.ProbeResult {
	cur := atomic.AddInt32(&g.current, 1)
	for {
		old := atomic.LoadInt32(&g.max)
		if cur <= old || atomic.CompareAndSwapInt32(&g.max, old, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&g.current, -1)

	g.mu.Lock()
	g.seen = append(g.seen, url)
	g.mu.Unlock()

	return domain.ProbeResult{
		URL: url, Outcome: domain.OutcomeSuccess, HTTPStatus: 200,
		LatencyMS: 5, Attempts: 1, CheckedAt: time.Now().UTC(),
	}
}

func TestKeepalive_ProbesEveryEndpointOnceBounded(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		e := &domain.Endpoint{
			ID:        domain.EndpointID(rune('A' + i)),
			AccountID: "acct",
			URL:       "https://svc.example.com/" + string(rune('a'+i)),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.AddEndpoint(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	p := &gaugeProber{}
	k := NewKeepalive(zap.NewNop(), s, p, 5, 0)
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(p.seen) != 12 {
		t.Fatalf("want each endpoint probed exactly once, got %d probes", len(p.seen))
	}
	if p.max > 5 {
		t.Fatalf("concurrency bound exceeded: %d", p.max)
	}

	// every endpoint's last-probed timestamp was written
	eps, _ := s.ListActive(ctx)
	for _, e := range eps {
		if e.LastProbedAt == nil {
			t.Fatalf("endpoint %s missing last-probed timestamp", e.ID)
		}
	}
}

func TestKeepalive_SuccessCounterOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	for _, e := range []*domain.Endpoint{
		{ID: "up", AccountID: "acct", URL: "https://up.example.com", SuccessCount: 3},
		{ID: "down", AccountID: "acct", URL: "https://down.example.com", SuccessCount: 3},
	} {
		if err := s.AddEndpoint(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	p := &fakeProber{failURLs: map[string]domain.ProbeResult{
		"https://down.example.com": {
			Outcome: domain.OutcomeNetworkError, Reason: "connection refused", Attempts: 1,
		},
	}}
	k := NewKeepalive(zap.NewNop(), s, p, 5, 0)
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	eps, _ := s.ListActive(ctx)
	counts := map[domain.EndpointID]int64{}
	for _, e := range eps {
		counts[e.ID] = e.SuccessCount
	}
	if counts["up"] != 4 {
		t.Fatalf("successful probe should increment, got %d", counts["up"])
	}
	if counts["down"] != 3 {
		t.Fatalf("failed probe must not increment, got %d", counts["down"])
	}
}

func TestKeepalive_BaseTimeoutReachesProber(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if err := s.AddEndpoint(ctx, &domain.Endpoint{
		ID: "E1", AccountID: "acct", URL: "https://svc.example.com",
	}); err != nil {
		t.Fatal(err)
	}

	p := &fakeProber{}
	k := NewKeepalive(zap.NewNop(), s, p, 5, 0)
	k.BaseTimeout = 3 * time.Second
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) != 1 {
		t.Fatalf("want one probe, got %d", len(p.calls))
	}
	pol := p.calls[0].pol
	if pol.BaseTimeout != 3*time.Second {
		t.Fatalf("configured base timeout must reach the prober, got %v", pol.BaseTimeout)
	}
	if pol.MaxAttempts != 1 {
		t.Fatalf("keep-alive always probes on the single-attempt schedule, got %d", pol.MaxAttempts)
	}
}

func TestKeepalive_EmptyStoreIsNotAnError(t *testing.T) {
	k := NewKeepalive(zap.NewNop(), memory.New(), &fakeProber{}, 5, 0)
	if err := k.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
