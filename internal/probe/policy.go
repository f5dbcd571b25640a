package probe

import "time"

// Policy is the retry/timeout schedule for one probe. It is a plain
// value so orchestration and tests can name and inspect it instead of
// burying sleeps in the loop.
type Policy struct {
	MaxAttempts   int
	BaseTimeout   time.Duration
	RetryDelay    time.Duration // wait between attempts
	TimeoutGrowth time.Duration // added to the timeout per subsequent attempt
}

// PolicyFor selects the schedule by endpoint age. New endpoints are
// disproportionately cold-starting services (waking from idle), so they
// get more attempts and more patience per attempt. baseTimeout overrides
// the established schedule's per-attempt timeout; zero or negative keeps
// the 30s default. The new-group schedule is fixed.
func PolicyFor(newEndpointGroup bool, baseTimeout time.Duration) Policy {
	if newEndpointGroup {
		return Policy{
			MaxAttempts:   3,
			BaseTimeout:   45 * time.Second,
			RetryDelay:    5 * time.Second,
			TimeoutGrowth: 15 * time.Second,
		}
	}
	if baseTimeout <= 0 {
		baseTimeout = 30 * time.Second
	}
	return Policy{
		MaxAttempts: 1,
		BaseTimeout: baseTimeout,
		RetryDelay:  1 * time.Second,
	}
}

// AttemptTimeout returns the timeout for a 1-based attempt number.
func (p Policy) AttemptTimeout(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseTimeout + time.Duration(attempt-1)*p.TimeoutGrowth
}
