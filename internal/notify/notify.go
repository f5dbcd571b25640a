package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/probekit/linkmonitor/internal/domain"
)

// Notifier delivers the two alert kinds the engine emits. Delivery is
// best-effort: callers log failures and never retry or roll back.
type Notifier interface {
	SendLowCredit(ctx context.Context, email string) error
	SendFailures(ctx context.Context, email string, failures []domain.ProbeResult) error
}

type Multi []Notifier

func (m Multi) SendLowCredit(ctx context.Context, email string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.SendLowCredit(ctx, email); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) SendFailures(ctx context.Context, email string, failures []domain.ProbeResult) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.SendFailures(ctx, email, failures); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FailureLine renders one failed probe for an alert body.
func FailureLine(r domain.ProbeResult) string {
	detail := r.Reason
	if r.HTTPStatus != 0 {
		detail = fmt.Sprintf("HTTP %d: %s", r.HTTPStatus, r.Reason)
	}
	return fmt.Sprintf("%s — %s (%.0f ms, %d attempt(s))", r.URL, detail, r.LatencyMS, r.Attempts)
}

func failureText(failures []domain.ProbeResult) string {
	var b strings.Builder
	for _, f := range failures {
		b.WriteString("• ")
		b.WriteString(FailureLine(f))
		b.WriteString("\n")
	}
	return b.String()
}
