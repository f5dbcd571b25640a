package memory

import (
	"context"
	"testing"
	"time"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/repo"
)

func TestMemoryStore_ListWithEndpointsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	// rich account with one endpoint
	rich := &domain.Account{
		ID: "rich", Email: "rich@example.com", Credit: 100,
		Endpoints: []domain.Endpoint{{URL: "https://rich.example.com"}},
	}
	// poor account with one endpoint
	poor := &domain.Account{
		ID: "poor", Email: "poor@example.com", Credit: 5,
		Endpoints: []domain.Endpoint{{URL: "https://poor.example.com"}},
	}
	// account with credit but nothing to monitor
	empty := &domain.Account{ID: "empty", Email: "empty@example.com", Credit: 100}

	for _, a := range []*domain.Account{rich, poor, empty} {
		if err := s.AddAccount(ctx, a); err != nil {
			t.Fatalf("AddAccount: %v", err)
		}
	}

	eligible, err := s.ListWithEndpoints(ctx, repo.CreditFilter{Op: repo.CreditAtLeast, Threshold: 10})
	if err != nil {
		t.Fatalf("ListWithEndpoints: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != "rich" {
		t.Fatalf("want only rich, got %+v", eligible)
	}
	if len(eligible[0].Endpoints) != 1 {
		t.Fatalf("want endpoints attached, got %+v", eligible[0].Endpoints)
	}

	low, err := s.ListWithEndpoints(ctx, repo.CreditFilter{Op: repo.CreditBelow, Threshold: 10})
	if err != nil {
		t.Fatalf("ListWithEndpoints: %v", err)
	}
	if len(low) != 1 || low[0].ID != "poor" {
		t.Fatalf("want only poor, got %+v", low)
	}
}

func TestMemoryStore_EndpointsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	a := &domain.Account{ID: "A", Credit: 100}
	if err := s.AddAccount(ctx, a); err != nil {
		t.Fatal(err)
	}
	// added out of creation order on purpose
	for _, e := range []struct {
		id  string
		off time.Duration
	}{
		{"later", 2 * time.Minute},
		{"first", 0},
		{"mid", time.Minute},
	} {
		ep := &domain.Endpoint{
			ID: domain.EndpointID(e.id), AccountID: "A",
			URL:       "https://" + e.id + ".example.com",
			CreatedAt: base.Add(e.off),
		}
		if err := s.AddEndpoint(ctx, ep); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListWithEndpoints(ctx, repo.CreditFilter{Op: repo.CreditAtLeast, Threshold: 1})
	if err != nil {
		t.Fatal(err)
	}
	eps := got[0].Endpoints
	if len(eps) != 3 || eps[0].ID != "first" || eps[1].ID != "mid" || eps[2].ID != "later" {
		t.Fatalf("endpoints not in creation order: %+v", eps)
	}
}

func TestMemoryStore_UpdateCreditAndStats(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &domain.Account{ID: "A", Credit: 50,
		Endpoints: []domain.Endpoint{{ID: "E", URL: "https://e.example.com"}}}
	if err := s.AddAccount(ctx, a); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateCredit(ctx, "A", 40); err != nil {
		t.Fatalf("UpdateCredit: %v", err)
	}
	got, _ := s.Get(ctx, "A")
	if got.Credit != 40 {
		t.Fatalf("want 40, got %d", got.Credit)
	}

	now := time.Now().UTC()
	if err := s.UpdateStats(ctx, "E", 3, now); err != nil {
		t.Fatalf("UpdateStats: %v", err)
	}
	eps, _ := s.ListActive(ctx)
	if eps[0].SuccessCount != 3 || eps[0].LastProbedAt == nil {
		t.Fatalf("stats not updated: %+v", eps[0])
	}

	if err := s.UpdateCredit(ctx, "missing", 1); err != repo.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_HistoryInsertListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 3; i++ {
		if err := s.Insert(ctx, "E", float64(100+i), time.Now().UTC()); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	entries, err := s.List(ctx, "E")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	if entries[0].LatencyMS != 100 || entries[2].LatencyMS != 102 {
		t.Fatalf("entries out of order: %+v", entries)
	}

	if err := s.Delete(ctx, []int64{entries[0].ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	entries, _ = s.List(ctx, "E")
	if len(entries) != 2 || entries[0].LatencyMS != 101 {
		t.Fatalf("oldest not deleted: %+v", entries)
	}
}
