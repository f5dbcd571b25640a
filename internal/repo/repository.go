package repo

import (
	"context"
	"errors"
	"time"

	"github.com/probekit/linkmonitor/internal/domain"
)

// ErrNotFound is returned by updates against a missing row. Reads
// return nil, nil instead.
var ErrNotFound = errors.New("not found")

// CreditOp selects which side of a credit threshold ListWithEndpoints
// should return.
type CreditOp int

const (
	CreditBelow CreditOp = iota
	CreditAtLeast
)

// CreditFilter narrows account listings by balance. Listings always
// exclude accounts that own no endpoints.
type CreditFilter struct {
	Op        CreditOp
	Threshold int64
}

// Ports (interfaces) — swap in any DB adapter later.

type AccountStore interface {
	// ListWithEndpoints returns matching accounts with their endpoints
	// attached, endpoints in creation order.
	ListWithEndpoints(ctx context.Context, f CreditFilter) ([]domain.Account, error)
	Get(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	UpdateCredit(ctx context.Context, id domain.AccountID, newBalance int64) error
}

type EndpointStore interface {
	// ListActive returns every endpoint ordered by creation time.
	ListActive(ctx context.Context) ([]domain.Endpoint, error)
	// UpdateStats sets the cumulative success counter and last-probed time.
	UpdateStats(ctx context.Context, id domain.EndpointID, successCount int64, lastProbedAt time.Time) error
}

type HistoryStore interface {
	// List returns an endpoint's entries ordered by creation time, oldest first.
	List(ctx context.Context, id domain.EndpointID) ([]domain.HistoryEntry, error)
	Delete(ctx context.Context, ids []int64) error
	Insert(ctx context.Context, id domain.EndpointID, latencyMS float64, at time.Time) error
}
