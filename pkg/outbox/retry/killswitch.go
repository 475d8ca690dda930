package retry

import (
	"sync"
	"time"
)

// KillSwitch suspends all publishing after a burst of failures instead of
// hammering a degraded broker. It is the relay's backpressure mechanism: once
// tripped, nothing queues behind it; the poll loop simply skips batches until
// the cooldown elapses, then resumes on its own.
type KillSwitch struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	cooldown  time.Duration
	failures  []time.Time
	openUntil time.Time
	now       func() time.Time
}

// NewKillSwitch trips after threshold failures within window, suspending for
// cooldown. Zero values fall back to a conservative default.
func NewKillSwitch(threshold int, window, cooldown time.Duration) *KillSwitch {
	if threshold <= 0 {
		threshold = 10
	}
	if window <= 0 {
		window = 30 * time.Second
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &KillSwitch{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether publishing may proceed. It flips back to true once
// the cooldown has elapsed; no external reset is needed.
func (k *KillSwitch) Allow() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now().After(k.openUntil)
}

// Engaged reports whether the switch is currently suspending publishes.
func (k *KillSwitch) Engaged() bool {
	return !k.Allow()
}

// RecordFailure notes a publish failure; crossing the threshold within the
// window engages the switch and clears the failure log.
func (k *KillSwitch) RecordFailure() {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	cutoff := now.Add(-k.window)
	kept := k.failures[:0]
	for _, ts := range k.failures {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	k.failures = append(kept, now)

	if len(k.failures) >= k.threshold {
		k.openUntil = now.Add(k.cooldown)
		k.failures = k.failures[:0]
	}
}

// RecordSuccess clears the failure window; isolated failures inside a healthy
// stream should not accumulate toward a trip.
func (k *KillSwitch) RecordSuccess() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failures = k.failures[:0]
}

// RemainingCooldown returns how long until publishing resumes, zero when the
// switch is not engaged.
func (k *KillSwitch) RemainingCooldown() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	remaining := k.openUntil.Sub(k.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
