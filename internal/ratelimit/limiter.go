package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrRateLimited is returned by Consume when an actor has exhausted its
// reaction budget for the current window.
var ErrRateLimited = errors.New("actor rate limit exhausted")

// SentimentCounter counts an actor's persisted sentiments at or after a
// given instant. Implemented by repositories.SentimentRepository.
type SentimentCounter interface {
	CountSentimentsSince(ctx context.Context, actorID uint, since time.Time) (int64, error)
}

// TimeSource supplies a trustworthy current timestamp from the network.
type TimeSource interface {
	NetworkTime(timeout time.Duration) (time.Time, error)
}

// RollingWindowLimiter bounds how often an actor may react by counting its
// sentiments inside a sliding trailing window. It keeps no internal token
// state; every decision recomputes the count from storage, so it survives
// process restarts.
type RollingWindowLimiter struct {
	counter     SentimentCounter
	timeSource  TimeSource
	maxTokens   int
	window      time.Duration
	timeTimeout time.Duration
	logger      *zap.Logger
}

// NewRollingWindowLimiter creates a limiter allowing maxTokens reactions per
// actor inside the trailing window
func NewRollingWindowLimiter(counter SentimentCounter, timeSource TimeSource, maxTokens int, window time.Duration, timeTimeout time.Duration, logger *zap.Logger) *RollingWindowLimiter {
	return &RollingWindowLimiter{
		counter:     counter,
		timeSource:  timeSource,
		maxTokens:   maxTokens,
		window:      window,
		timeTimeout: timeTimeout,
		logger:      logger,
	}
}

// CanConsume reports whether the actor may record another reaction. The
// window boundary is inclusive: a sentiment created exactly at now-window
// still counts against the budget.
func (l *RollingWindowLimiter) CanConsume(ctx context.Context, actorID uint) (bool, error) {
	past := l.now().Add(-l.window)
	count, err := l.counter.CountSentimentsSince(ctx, actorID, past)
	if err != nil {
		return false, fmt.Errorf("failed to count sentiments for actor %d: %w", actorID, err)
	}
	return count < int64(l.maxTokens), nil
}

// Consume is CanConsume with a typed error: it returns ErrRateLimited when
// the budget is exhausted so callers can tell exhaustion from storage errors.
func (l *RollingWindowLimiter) Consume(ctx context.Context, actorID uint) error {
	ok, err := l.CanConsume(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("actor %d: %w", actorID, ErrRateLimited)
	}
	return nil
}

// now asks the network time source first and falls back to the local clock
// when it is unreachable. The fallback lives here, not in the time source:
// the limiter owns the decision that a degraded clock is acceptable.
func (l *RollingWindowLimiter) now() time.Time {
	t, err := l.timeSource.NetworkTime(l.timeTimeout)
	if err != nil {
		l.logger.Warn("network time unavailable, using local clock", zap.Error(err))
		return time.Now().UTC()
	}
	return t
}
