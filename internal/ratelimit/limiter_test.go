package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubClock returns a fixed instant, or an error when broken.
type stubClock struct {
	now time.Time
	err error
}

func (c *stubClock) NetworkTime(time.Duration) (time.Time, error) {
	if c.err != nil {
		return time.Time{}, c.err
	}
	return c.now, nil
}

// stubCounter replays recorded sentiment timestamps for a single actor.
type stubCounter struct {
	stamps []time.Time
	err    error
	since  time.Time
}

func (c *stubCounter) CountSentimentsSince(_ context.Context, _ uint, since time.Time) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.since = since
	var n int64
	for _, stamp := range c.stamps {
		if !stamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func TestConsumeExhaustsAndRecovers(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &stubClock{now: base}
	counter := &stubCounter{}
	limiter := NewRollingWindowLimiter(counter, clock, 3, 10*time.Minute, time.Second, zap.NewNop())

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Consume(context.Background(), 1))
		counter.stamps = append(counter.stamps, clock.now)
	}

	err := limiter.Consume(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Once the oldest sentiments slide out of the window the budget refills.
	clock.now = base.Add(11 * time.Minute)
	assert.NoError(t, limiter.Consume(context.Background(), 1))
}

func TestWindowBoundaryIsInclusive(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &stubClock{now: base.Add(10 * time.Minute)}
	counter := &stubCounter{stamps: []time.Time{base}}
	limiter := NewRollingWindowLimiter(counter, clock, 1, 10*time.Minute, time.Second, zap.NewNop())

	// The sentiment sits exactly at now-window and still counts.
	err := limiter.Consume(context.Background(), 1)
	assert.ErrorIs(t, err, ErrRateLimited)

	clock.now = clock.now.Add(time.Nanosecond)
	assert.NoError(t, limiter.Consume(context.Background(), 1))
}

func TestBrokenClockFallsBackToLocalTime(t *testing.T) {
	clock := &stubClock{err: fmt.Errorf("udp timeout")}
	counter := &stubCounter{}
	limiter := NewRollingWindowLimiter(counter, clock, 5, 10*time.Minute, time.Second, zap.NewNop())

	before := time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, limiter.Consume(context.Background(), 1))
	after := time.Now().UTC().Add(-10 * time.Minute)

	// The limiter still answered, using a local window boundary.
	assert.False(t, counter.since.Before(before))
	assert.False(t, counter.since.After(after))
}

func TestStorageErrorIsNotRateLimit(t *testing.T) {
	clock := &stubClock{now: time.Now().UTC()}
	counter := &stubCounter{err: errors.New("connection reset")}
	limiter := NewRollingWindowLimiter(counter, clock, 5, 10*time.Minute, time.Second, zap.NewNop())

	err := limiter.Consume(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "actor 7")
}
