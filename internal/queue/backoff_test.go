package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffPolicy_Doubling(t *testing.T) {
	p := BackoffPolicy{
		Base:        5 * time.Second,
		Cap:         2 * time.Minute,
		Jitter:      0,
		MaxAttempts: 3,
	}

	assert.Equal(t, 5*time.Second, p.Delay(0))
	assert.Equal(t, 10*time.Second, p.Delay(1))
	assert.Equal(t, 20*time.Second, p.Delay(2))
	assert.Equal(t, 40*time.Second, p.Delay(3))
}

func TestBackoffPolicy_CapBounds(t *testing.T) {
	p := BackoffPolicy{
		Base:        5 * time.Second,
		Cap:         2 * time.Minute,
		Jitter:      0,
		MaxAttempts: 3,
	}

	// Large attempt counts must not overflow or exceed the cap.
	assert.Equal(t, 2*time.Minute, p.Delay(10))
	assert.Equal(t, 2*time.Minute, p.Delay(63))
	assert.Equal(t, 2*time.Minute, p.Delay(1000))
}

func TestBackoffPolicy_NonDecreasing(t *testing.T) {
	p := BackoffPolicy{
		Base:        time.Second,
		Cap:         time.Minute,
		Jitter:      0,
		MaxAttempts: 3,
	}

	prev := time.Duration(0)
	for attempt := 0; attempt < 20; attempt++ {
		d := p.Delay(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
}

func TestBackoffPolicy_JitterWithinRange(t *testing.T) {
	p := BackoffPolicy{
		Base:        time.Second,
		Cap:         time.Minute,
		Jitter:      500 * time.Millisecond,
		MaxAttempts: 3,
	}

	for i := 0; i < 100; i++ {
		d := p.Delay(0)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, time.Second+500*time.Millisecond)
	}
}

func TestBackoffPolicy_NegativeAttemptTreatedAsZero(t *testing.T) {
	p := BackoffPolicy{Base: time.Second, Cap: time.Minute, MaxAttempts: 3}
	assert.Equal(t, time.Second, p.Delay(-4))
}
