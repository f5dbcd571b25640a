package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/repo"
)

var _ repo.AccountStore = (*Store)(nil)
var _ repo.EndpointStore = (*Store)(nil)
var _ repo.HistoryStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- AccountStore ----

func (s *Store) ListWithEndpoints(ctx context.Context, f repo.CreditFilter) ([]domain.Account, error) {
	op := ">="
	if f.Op == repo.CreditBelow {
		op = "<"
	}
	q := fmt.Sprintf(
		`SELECT a.id, a.email, a.credit
		   FROM accounts a
		  WHERE a.credit %s $1
		    AND EXISTS (SELECT 1 FROM endpoints e WHERE e.account_id = a.id)
		  ORDER BY a.id`, op)

	rows, err := s.pool.Query(ctx, q, f.Threshold)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	var ids []string
	idx := make(map[domain.AccountID]int)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Credit); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		idx[a.ID] = len(out)
		ids = append(ids, string(a.ID))
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	eps, err := s.endpointsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range eps {
		i := idx[e.AccountID]
		out[i].Endpoints = append(out[i].Endpoints, e)
	}
	return out, nil
}

func (s *Store) endpointsOf(ctx context.Context, accountIDs []string) ([]domain.Endpoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, url, success_count, last_probed_at, created_at
		   FROM endpoints
		  WHERE account_id = ANY($1)
		  ORDER BY created_at, id`, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()
	return scanEndpoints(rows)
}

func (s *Store) Get(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, credit FROM accounts WHERE id = $1`, string(id))
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Email, &a.Credit); err != nil {
		return nil, nil // not found -> nil, nil
	}
	eps, err := s.endpointsOf(ctx, []string{string(id)})
	if err != nil {
		return nil, err
	}
	a.Endpoints = eps
	return &a, nil
}

func (s *Store) UpdateCredit(ctx context.Context, id domain.AccountID, newBalance int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET credit = $2 WHERE id = $1`, string(id), newBalance)
	if err != nil {
		return fmt.Errorf("update credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- EndpointStore ----

func (s *Store) ListActive(ctx context.Context) ([]domain.Endpoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, url, success_count, last_probed_at, created_at
		   FROM endpoints
		  ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list active endpoints: %w", err)
	}
	defer rows.Close()
	return scanEndpoints(rows)
}

func (s *Store) UpdateStats(ctx context.Context, id domain.EndpointID, successCount int64, lastProbedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE endpoints SET success_count = $2, last_probed_at = $3 WHERE id = $1`,
		string(id), successCount, lastProbedAt)
	if err != nil {
		return fmt.Errorf("update endpoint stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- HistoryStore ----

func (s *Store) List(ctx context.Context, id domain.EndpointID) ([]domain.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, endpoint_id, latency_ms, created_at
		   FROM history
		  WHERE endpoint_id = $1
		  ORDER BY created_at, id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.ID, &h.EndpointID, &h.LatencyMS, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM history WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, id domain.EndpointID, latencyMS float64, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO history (endpoint_id, latency_ms, created_at) VALUES ($1, $2, $3)`,
		string(id), latencyMS, at)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}
