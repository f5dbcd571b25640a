package alert

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
)

type fakeNotifier struct {
	low  []string
	fail []string
	err  error
}

func (f *fakeNotifier) SendLowCredit(ctx context.Context, email string) error {
	f.low = append(f.low, email)
	return f.err
}

func (f *fakeNotifier) SendFailures(ctx context.Context, email string, fs []domain.ProbeResult) error {
	f.fail = append(f.fail, email)
	return f.err
}

func TestNotifyLowCredit_SkipsAccountsWithoutEndpoints(t *testing.T) {
	n := &fakeNotifier{}
	g := NewGate(n, zap.NewNop())

	bare := domain.Account{ID: "A", Email: "bare@example.com", Credit: 0}
	if g.NotifyLowCredit(context.Background(), bare) {
		t.Fatalf("account with no endpoints must not alert")
	}
	if len(n.low) != 0 {
		t.Fatalf("unexpected send: %v", n.low)
	}

	owning := domain.Account{
		ID: "B", Email: "b@example.com", Credit: 0,
		Endpoints: []domain.Endpoint{{ID: "E", URL: "https://b.example.com"}},
	}
	if !g.NotifyLowCredit(context.Background(), owning) {
		t.Fatalf("expected alert for low-credit account with endpoints")
	}
	if len(n.low) != 1 || n.low[0] != "b@example.com" {
		t.Fatalf("wrong recipients: %v", n.low)
	}
}

func TestNotifyFailures_OneDigestPerAccount(t *testing.T) {
	n := &fakeNotifier{}
	g := NewGate(n, zap.NewNop())
	a := domain.Account{ID: "A", Email: "a@example.com"}

	if g.NotifyFailures(context.Background(), a, nil) {
		t.Fatalf("no failures, no alert")
	}

	failures := []domain.ProbeResult{
		{URL: "https://one.example.com", Outcome: domain.OutcomeTimeout, Attempts: 3},
		{URL: "https://two.example.com", Outcome: domain.OutcomeHTTPError, HTTPStatus: 500, Attempts: 1},
	}
	if !g.NotifyFailures(context.Background(), a, failures) {
		t.Fatalf("expected digest alert")
	}
	if len(n.fail) != 1 {
		t.Fatalf("want a single digest send, got %d", len(n.fail))
	}
}

func TestGate_DeliveryFailureDoesNotPropagate(t *testing.T) {
	n := &fakeNotifier{err: errors.New("smtp down")}
	g := NewGate(n, zap.NewNop())
	a := domain.Account{
		ID: "A", Email: "a@example.com",
		Endpoints: []domain.Endpoint{{ID: "E"}},
	}

	// the decision still fires; the send error is swallowed and logged
	if !g.NotifyLowCredit(context.Background(), a) {
		t.Fatalf("decision should fire regardless of delivery")
	}
	if !g.NotifyFailures(context.Background(), a, []domain.ProbeResult{{URL: "https://x"}}) {
		t.Fatalf("decision should fire regardless of delivery")
	}
}
