package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowBurstThenRefill(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := New(2, 1, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.InDelta(t, 60, l.RetryAfter("10.0.0.1").Seconds(), 0.001)

	// other keys have their own bucket
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(30 * time.Second)
	assert.False(t, l.Allow("10.0.0.1"))
	assert.InDelta(t, 30, l.RetryAfter("10.0.0.1").Seconds(), 0.001)

	now = now.Add(31 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestRefillCapsAtBurst(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := New(1, 60, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("k"))
	now = now.Add(time.Hour)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestRetryAfterUnknownKey(t *testing.T) {
	assert.Zero(t, New(1, 1).RetryAfter("nobody"))
}

func TestIdleBucketsAreDropped(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := New(2, 60, WithClock(func() time.Time { return now })) // full again after 2s

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		assert.True(t, l.Allow(ip))
	}
	assert.Equal(t, 3, l.Len())

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.Equal(t, 3, l.Len(), "no sweep before the idle period")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("10.0.0.4"))
	assert.Equal(t, 2, l.Len(), "only the recently used key and the new one remain")

	// a dropped key starts full, as it would have refilled anyway
	assert.True(t, l.Allow("10.0.0.2"))
	assert.True(t, l.Allow("10.0.0.2"))
	assert.False(t, l.Allow("10.0.0.2"))
}

func TestNoRefillKeepsBuckets(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := New(1, 0, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("k"))
	now = now.Add(24 * time.Hour)
	assert.False(t, l.Allow("k"))
	assert.Equal(t, 1, l.Len())
}
