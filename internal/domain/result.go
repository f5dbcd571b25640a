package domain

import "time"

// Outcome classifies how a probe ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeHTTPError    Outcome = "http_error"
	OutcomeNetworkError Outcome = "network_error"
	OutcomeTimeout      Outcome = "timeout"
)

// ProbeResult is the outcome of one probe (all attempts included).
// It is ephemeral: consumed by the ledger, history and alerting within
// the cycle that produced it. HTTPStatus is 0 when no response arrived.
type ProbeResult struct {
	EndpointID EndpointID `json:"endpoint_id"`
	URL        string     `json:"url"`
	Outcome    Outcome    `json:"outcome"`
	HTTPStatus int        `json:"http_status,omitempty"`
	LatencyMS  float64    `json:"latency_ms"`
	Attempts   int        `json:"attempts"`
	Reason     string     `json:"reason,omitempty"`
	CheckedAt  time.Time  `json:"checked_at"`
}

func (r ProbeResult) Success() bool { return r.Outcome == OutcomeSuccess }

// CycleReport aggregates one account's cycle: how many probes succeeded
// and failed, what was charged, and the failures for the alert digest.
type CycleReport struct {
	AccountID AccountID
	Successes int
	Failures  []ProbeResult
	Charged   int64
}
