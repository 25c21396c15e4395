// ABOUTME: Exponential backoff used between factory invocations that did not yield a pending signal.
// ABOUTME: Delay is InitialDelay * Factor^attempt, capped at MaxDelay, with optional jitter.
package readiness

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig controls delay timing between factory retries.
type BackoffConfig struct {
	InitialDelay time.Duration // default 10ms
	Factor       float64       // default 2.0
	MaxDelay     time.Duration // default 2s
	Jitter       bool          // default false
}

// DefaultBackoff returns the backoff used when none is configured.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 10 * time.Millisecond,
		Factor:       2.0,
		MaxDelay:     2 * time.Second,
	}
}

// DelayForAttempt calculates the delay for a given attempt number (0-indexed).
// Non-positive InitialDelay or MaxDelay fall back to the defaults, so the
// delay is never zero and never unbounded.
// If Jitter is enabled, the delay is randomized in [delay/2, delay].
func (b BackoffConfig) DelayForAttempt(attempt int) time.Duration {
	def := DefaultBackoff()
	initial := b.InitialDelay
	if initial <= 0 {
		initial = def.InitialDelay
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = def.MaxDelay
	}
	if maxDelay < initial {
		maxDelay = initial
	}
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}
	if attempt < 0 {
		attempt = 0
	}

	maxNanos := float64(maxDelay.Nanoseconds())
	delayNanos := math.Min(float64(initial.Nanoseconds())*math.Pow(factor, float64(attempt)), maxNanos)
	if math.IsInf(delayNanos, 0) || math.IsNaN(delayNanos) {
		delayNanos = maxNanos
	}

	if b.Jitter {
		delayNanos = delayNanos/2 + rand.Float64()*delayNanos/2
	}

	return time.Duration(int64(delayNanos))
}
