package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/probekit/linkmonitor/internal/domain"
)

const userAgent = "linkmonitor/1.0"

type Prober struct {
	Client *http.Client
}

// NewProber builds a prober whose per-attempt deadlines come from the
// policy, so the client itself carries no timeout.
func NewProber() *Prober {
	return &Prober{Client: &http.Client{}}
}

// Probe runs one health check against url under the given policy and
// returns a result covering the whole attempt series. EndpointID is left
// for the caller to fill in. On success, latency is measured from the
// first attempt's start to the successful response.
func (p *Prober) Probe(ctx context.Context, url string, pol Policy) domain.ProbeResult {
	if pol.MaxAttempts < 1 {
		pol.MaxAttempts = 1
	}
	start := time.Now()
	var last domain.ProbeResult

	for attempt := 1; attempt <= pol.MaxAttempts; attempt++ {
		last = p.attempt(ctx, url, pol.AttemptTimeout(attempt))
		last.URL = url
		last.Attempts = attempt
		last.LatencyMS = time.Since(start).Seconds() * 1000
		last.CheckedAt = time.Now().UTC()
		if last.Success() {
			return last
		}
		if attempt < pol.MaxAttempts {
			time.Sleep(pol.RetryDelay)
		}
	}
	return last
}

func (p *Prober) attempt(ctx context.Context, url string, timeout time.Duration) domain.ProbeResult {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ProbeResult{Outcome: domain.OutcomeNetworkError, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := p.Client.Do(req)
	if err != nil {
		return domain.ProbeResult{Outcome: classifyTransportError(err), Reason: err.Error()}
	}
	defer resp.Body.Close()

	// Only 2xx and 3xx count as healthy.
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return domain.ProbeResult{
			Outcome:    domain.OutcomeSuccess,
			HTTPStatus: resp.StatusCode,
			Reason:     resp.Status,
		}
	}
	return domain.ProbeResult{
		Outcome:    domain.OutcomeHTTPError,
		HTTPStatus: resp.StatusCode,
		Reason:     resp.Status,
	}
}

func classifyTransportError(err error) domain.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.OutcomeTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.OutcomeTimeout
	}
	return domain.OutcomeNetworkError
}
