package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/alert"
	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/history"
	"github.com/probekit/linkmonitor/internal/ledger"
	"github.com/probekit/linkmonitor/internal/probe"
	"github.com/probekit/linkmonitor/internal/repo"
)

// Prober runs one probe under a policy.
type Prober interface {
	Probe(ctx context.Context, url string, pol probe.Policy) domain.ProbeResult
}

// Pacing names every deliberate delay in a cycle. Probing politely is
// part of the contract toward the monitored services and the mail
// transport, so these are first-class values, not inline sleeps.
type Pacing struct {
	ProbeDelay           time.Duration // between endpoint probes
	NewGroupProbeDelay   time.Duration // same, for new-endpoint-group accounts
	AccountDelay         time.Duration // between accounts
	NewGroupAccountDelay time.Duration // same, for new-endpoint-group accounts
	NotifyDelay          time.Duration // between low-credit notifications
}

func DefaultPacing() Pacing {
	return Pacing{
		ProbeDelay:           200 * time.Millisecond,
		NewGroupProbeDelay:   1000 * time.Millisecond,
		AccountDelay:         500 * time.Millisecond,
		NewGroupAccountDelay: 2000 * time.Millisecond,
		NotifyDelay:          500 * time.Millisecond,
	}
}

func (p Pacing) probeDelay(newGroup bool) time.Duration {
	if newGroup {
		return p.NewGroupProbeDelay
	}
	return p.ProbeDelay
}

func (p Pacing) accountDelay(newGroup bool) time.Duration {
	if newGroup {
		return p.NewGroupAccountDelay
	}
	return p.AccountDelay
}

// Cycle drives one credit-gated monitoring pass to completion:
// notify low-credit accounts, then probe, meter, record and alert for
// every eligible account. Endpoints within an account are probed
// sequentially in load order.
type Cycle struct {
	Logger    *zap.Logger
	Accounts  repo.AccountStore
	Endpoints repo.EndpointStore
	Prober    Prober
	Ledger    *ledger.Ledger
	History   *history.Recorder
	Gate      *alert.Gate
	Pacing    Pacing

	// BaseTimeout overrides the established schedule's per-attempt
	// timeout; zero keeps the default.
	BaseTimeout time.Duration
}

// Run executes the cycle. An error enumerating accounts is fatal (there
// is nothing to iterate); any failure inside one account's sub-steps is
// logged and the cycle moves on to the next account.
func (c *Cycle) Run(ctx context.Context) error {
	started := time.Now()
	unit := c.Ledger.UnitPrice()
	c.Logger.Info("cycle_started", zap.Int64("unit_price", unit))

	low, err := c.Accounts.ListWithEndpoints(ctx, repo.CreditFilter{Op: repo.CreditBelow, Threshold: unit})
	if err != nil {
		return fmt.Errorf("cycle: list low-credit accounts: %w", err)
	}
	for _, a := range low {
		if c.Gate.NotifyLowCredit(ctx, a) {
			time.Sleep(c.Pacing.NotifyDelay)
		}
	}

	eligible, err := c.Accounts.ListWithEndpoints(ctx, repo.CreditFilter{Op: repo.CreditAtLeast, Threshold: unit})
	if err != nil {
		return fmt.Errorf("cycle: list eligible accounts: %w", err)
	}
	c.Logger.Info("accounts_loaded",
		zap.Int("low_credit", len(low)),
		zap.Int("eligible", len(eligible)),
	)

	for _, a := range eligible {
		// The listing is a snapshot; re-check against the ledger so an
		// account that can no longer pay is not probed on stale data.
		if !c.Ledger.Eligible(a) {
			c.Logger.Info("account_skipped_ineligible",
				zap.String("account_id", string(a.ID)),
				zap.Int64("credit", a.Credit),
			)
			continue
		}
		newGroup := isNewEndpointGroup(a.Endpoints)
		if err := c.processAccount(ctx, a, newGroup); err != nil {
			c.Logger.Error("account_cycle_failed",
				zap.String("account_id", string(a.ID)),
				zap.Error(err),
			)
		}
		time.Sleep(c.Pacing.accountDelay(newGroup))
	}

	c.Logger.Info("cycle_completed",
		zap.Int("accounts", len(eligible)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// isNewEndpointGroup is account-wide on purpose: it answers "has this
// account ever gotten anything past its credit-gated onboarding", not
// "is this one endpoint new".
func isNewEndpointGroup(eps []domain.Endpoint) bool {
	for _, e := range eps {
		if e.SuccessCount > 0 {
			return false
		}
	}
	return len(eps) > 0
}

type successRecord struct {
	endpoint domain.Endpoint
	result   domain.ProbeResult
}

func (c *Cycle) processAccount(ctx context.Context, a domain.Account, newGroup bool) error {
	pol := probe.PolicyFor(newGroup, c.BaseTimeout)
	report := domain.CycleReport{AccountID: a.ID}
	var succeeded []successRecord

	for _, e := range a.Endpoints {
		res := c.Prober.Probe(ctx, e.URL, pol)
		res.EndpointID = e.ID

		if res.Success() {
			report.Successes++
			succeeded = append(succeeded, successRecord{endpoint: e, result: res})
			c.Logger.Info("probe_ok",
				zap.String("endpoint_id", string(e.ID)),
				zap.String("url", e.URL),
				zap.Int("status", res.HTTPStatus),
				zap.Float64("latency_ms", res.LatencyMS),
				zap.Int("attempts", res.Attempts),
			)
		} else {
			report.Failures = append(report.Failures, res)
			fields := []zap.Field{
				zap.String("endpoint_id", string(e.ID)),
				zap.String("url", e.URL),
				zap.String("outcome", string(res.Outcome)),
				zap.String("reason", res.Reason),
				zap.Int("attempts", res.Attempts),
			}
			if res.Outcome == domain.OutcomeNetworkError {
				// tell "service down" apart from "name gone"
				fields = append(fields, zap.String("dns",
					string(probe.ClassifyDNS(probe.HostFromURL(e.URL)))))
			}
			c.Logger.Warn("probe_failed", fields...)
		}

		time.Sleep(c.Pacing.probeDelay(newGroup))
	}

	// Metering is authoritative and happens before anything best-effort.
	balance, err := c.Ledger.Charge(ctx, a.ID, report.Successes)
	if err != nil {
		return err
	}
	report.Charged = int64(report.Successes) * c.Ledger.UnitPrice()

	for _, s := range succeeded {
		if err := c.Endpoints.UpdateStats(ctx, s.endpoint.ID, s.endpoint.SuccessCount+1, s.result.CheckedAt); err != nil {
			c.Logger.Warn("endpoint_stats_update_failed",
				zap.String("endpoint_id", string(s.endpoint.ID)),
				zap.Error(err),
			)
		}
		if err := c.History.Record(ctx, s.endpoint.ID, s.result.LatencyMS); err != nil {
			c.Logger.Warn("history_record_failed",
				zap.String("endpoint_id", string(s.endpoint.ID)),
				zap.Error(err),
			)
		}
	}

	c.Gate.NotifyFailures(ctx, a, report.Failures)

	c.Logger.Info("account_processed",
		zap.String("account_id", string(a.ID)),
		zap.Int("successes", report.Successes),
		zap.Int("failures", len(report.Failures)),
		zap.Int64("charged", report.Charged),
		zap.Int64("balance", balance),
		zap.Bool("new_endpoint_group", newGroup),
	)
	return nil
}
