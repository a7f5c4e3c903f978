package queue

import (
	"math/rand/v2"
	"time"
)

// BackoffPolicy maps an attempt count to a retry delay:
//
//	delay(attempt) = min(Base*2^attempt, Cap) + jitter
//
// where jitter is uniform in [0, Jitter). The delay is advisory to the
// queue's visibility mechanism: a retried task becomes claimable again only
// after it elapses.
type BackoffPolicy struct {
	Base        time.Duration
	Cap         time.Duration
	Jitter      time.Duration
	MaxAttempts int
}

// DefaultBackoffPolicy mirrors the retry envelope used in production:
// 5s, 10s, 20s, ... capped at 2 minutes, three attempts before dead-lettering.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Base:        5 * time.Second,
		Cap:         2 * time.Minute,
		Jitter:      5 * time.Second,
		MaxAttempts: 3,
	}
}

// Delay returns the visibility delay before the given attempt may be
// redelivered. It is non-decreasing in attempt (modulo jitter) and the
// deterministic part never exceeds Cap.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := p.Base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.Cap {
			delay = p.Cap
			break
		}
	}
	if delay > p.Cap {
		delay = p.Cap
	}

	if p.Jitter > 0 {
		delay += rand.N(p.Jitter)
	}
	return delay
}
