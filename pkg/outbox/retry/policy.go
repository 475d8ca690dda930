package retry

import "time"

const (
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
	defaultMaxAttempts  = 5
)

// Policy is the relay's backoff curve: an explicit object owned by the relay
// rather than broker-middleware settings. Attempt counting starts at 1.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// NewPolicy fills zero fields with defaults (1s doubling to 30s, 5 attempts).
func NewPolicy(initial, max time.Duration, attempts int) Policy {
	p := Policy{InitialDelay: initial, MaxDelay: max, MaxAttempts: attempts}
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	return p
}

// Delay returns the backoff to wait after the given failed attempt,
// doubling from InitialDelay and capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// NextAttemptAt schedules the retry following a failure on the given attempt.
func (p Policy) NextAttemptAt(now time.Time, attempt int) time.Time {
	return now.Add(p.Delay(attempt))
}

// Exhausted reports whether the row has no attempts left.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}
