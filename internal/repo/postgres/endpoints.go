package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/probekit/linkmonitor/internal/domain"
)

func scanEndpoints(rows pgx.Rows) ([]domain.Endpoint, error) {
	var out []domain.Endpoint
	for rows.Next() {
		var (
			e    domain.Endpoint
			last *time.Time
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &e.URL, &e.SuccessCount, &last, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		e.LastProbedAt = last
		out = append(out, e)
	}
	return out, rows.Err()
}
