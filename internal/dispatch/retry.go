package dispatch

import (
	"time"
)

// RetryPolicy decides how many times a failed delivery is re-attempted
// within one fan-out and how long to wait between tries. The base
// design ships with no retries: a dropped notification for an
// already-raised violation is not re-attempted on later cycles.
type RetryPolicy interface {
	// Retries returns how many re-attempts follow the initial try.
	Retries() int
	// Backoff returns the delay before re-attempt n (1-based).
	Backoff(n int) time.Duration
}

type nonePolicy struct{}

func (nonePolicy) Retries() int { return 0 }
func (nonePolicy) Backoff(int) time.Duration { return 0 }

type fixedPolicy struct {
	retries int
	delay   time.Duration
}

func (p fixedPolicy) Retries() int { return p.retries }
func (p fixedPolicy) Backoff(int) time.Duration { return p.delay }

type backoffPolicy struct {
	retries int
	base    time.Duration
}

func (p backoffPolicy) Retries() int { return p.retries }

func (p backoffPolicy) Backoff(n int) time.Duration {
	d := p.base
	for i := 1; i < n; i++ {
		d *= 2
	}
	return d
}

// NoRetry returns the default policy
func NoRetry() RetryPolicy { return nonePolicy{} }

// FixedRetry re-attempts retries times with a constant delay
func FixedRetry(retries int, delay time.Duration) RetryPolicy {
	return fixedPolicy{retries: retries, delay: delay}
}

// BackoffRetry re-attempts retries times with exponential backoff
func BackoffRetry(retries int, base time.Duration) RetryPolicy {
	return backoffPolicy{retries: retries, base: base}
}

// PolicyFromName builds a policy from configuration
func PolicyFromName(name string, retries int, base time.Duration) RetryPolicy {
	switch name {
	case "fixed":
		return FixedRetry(retries, base)
	case "backoff":
		return BackoffRetry(retries, base)
	default:
		return NoRetry()
	}
}
