package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/repo"
)

// Ledger meters probe usage against account credit. Only successful
// probes are charged, at a fixed unit price each.
type Ledger struct {
	accounts  repo.AccountStore
	unitPrice int64
	log       *zap.Logger
}

func New(accounts repo.AccountStore, unitPrice int64, log *zap.Logger) *Ledger {
	if unitPrice <= 0 {
		unitPrice = 10
	}
	return &Ledger{accounts: accounts, unitPrice: unitPrice, log: log}
}

func (l *Ledger) UnitPrice() int64 { return l.unitPrice }

// Eligible reports whether an account can pay for at least one probe.
func (l *Ledger) Eligible(a domain.Account) bool { return a.Credit >= l.unitPrice }

// Charge deducts successCount * unit price from the account and returns
// the new balance. The balance floors at zero. With successCount 0 it
// reads but never writes.
//
// The read-then-write is not atomic against concurrent writers (e.g., a
// credit purchase mid-cycle); last writer wins. Deduction only decreases
// the balance and the floor bounds the damage, so a race can under- or
// over-charge by one cycle's worth but never go negative.
func (l *Ledger) Charge(ctx context.Context, id domain.AccountID, successCount int) (int64, error) {
	if successCount < 0 {
		return 0, fmt.Errorf("charge: negative count %d", successCount)
	}

	a, err := l.accounts.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("charge: get account %s: %w", id, err)
	}
	if a == nil {
		return 0, fmt.Errorf("charge: account %s not found", id)
	}

	deduction := int64(successCount) * l.unitPrice
	if deduction == 0 {
		return a.Credit, nil
	}

	newBalance := a.Credit - deduction
	if newBalance < 0 {
		newBalance = 0
	}
	if err := l.accounts.UpdateCredit(ctx, id, newBalance); err != nil {
		return 0, fmt.Errorf("charge: update credit %s: %w", id, err)
	}

	l.log.Info("credit_charged",
		zap.String("account_id", string(id)),
		zap.Int("successful_probes", successCount),
		zap.Int64("deduction", deduction),
		zap.Int64("balance", newBalance),
	)
	return newBalance, nil
}
