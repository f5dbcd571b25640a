package domain

import "time"

type AccountID string
type EndpointID string

// Account owns a credit balance and zero or more endpoints. Only the
// ledger mutates Credit; the floor-at-zero rule keeps it non-negative.
type Account struct {
	ID        AccountID  `json:"id"`
	Email     string     `json:"email"`
	Credit    int64      `json:"credit"`
	Endpoints []Endpoint `json:"endpoints,omitempty"`
}

// Endpoint is a monitored URL. SuccessCount counts successful probes
// across all cycles; endpoint create/remove happens outside this core.
type Endpoint struct {
	ID           EndpointID `json:"id"`
	AccountID    AccountID  `json:"account_id"`
	URL          string     `json:"url"`
	SuccessCount int64      `json:"success_count"`
	LastProbedAt *time.Time `json:"last_probed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HistoryEntry is one retained latency sample for an endpoint. At most
// five are kept per endpoint, oldest evicted first.
type HistoryEntry struct {
	ID         int64      `json:"id"`
	EndpointID EndpointID `json:"endpoint_id"`
	LatencyMS  float64    `json:"latency_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}
