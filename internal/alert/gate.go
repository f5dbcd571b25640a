package alert

import (
	"context"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/notify"
)

// Gate decides which alerts a cycle's outcomes warrant and dispatches
// them. Delivery is best-effort: a failed send is logged and never
// blocks or rolls back metering already committed for the cycle.
type Gate struct {
	notifier notify.Notifier
	log      *zap.Logger
}

func NewGate(n notify.Notifier, log *zap.Logger) *Gate {
	return &Gate{notifier: n, log: log}
}

// NotifyLowCredit alerts an account whose balance can no longer pay for
// a single probe. Accounts with nothing to monitor are never notified.
// Returns whether the alert fired (not whether delivery succeeded).
func (g *Gate) NotifyLowCredit(ctx context.Context, a domain.Account) bool {
	if len(a.Endpoints) == 0 {
		return false
	}
	if err := g.notifier.SendLowCredit(ctx, a.Email); err != nil {
		g.log.Warn("low_credit_alert_failed",
			zap.String("account_id", string(a.ID)),
			zap.Error(err),
		)
	} else {
		g.log.Info("low_credit_alert_sent",
			zap.String("account_id", string(a.ID)),
		)
	}
	return true
}

// NotifyFailures sends one digest per account per cycle covering every
// failed probe, rather than an alert per endpoint.
func (g *Gate) NotifyFailures(ctx context.Context, a domain.Account, failures []domain.ProbeResult) bool {
	if len(failures) == 0 {
		return false
	}
	if err := g.notifier.SendFailures(ctx, a.Email, failures); err != nil {
		g.log.Warn("failure_alert_failed",
			zap.String("account_id", string(a.ID)),
			zap.Int("failures", len(failures)),
			zap.Error(err),
		)
	} else {
		g.log.Info("failure_alert_sent",
			zap.String("account_id", string(a.ID)),
			zap.Int("failures", len(failures)),
		)
	}
	return true
}
