package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestRetryUntilSuccess(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return statusErr(503)
		}
		return nil
	}, nil, fastConfig(5))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnFatal(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: boom}
	}, nil, fastConfig(5))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUp(t *testing.T) {
	var seen []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, _ error) { seen = append(seen, attempt) }
	err := WithRetryConfig(context.Background(), func() error { return errors.New("flaky") }, nil, cfg)
	require.ErrorIs(t, err, ErrMaxAttempts)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := WithRetryMax(ctx, func() error { calls++; return nil }, nil, 3)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestLimiterBacksOffOnRateLimit(t *testing.T) {
	lim := NewAdaptiveLimiter(100, 1, 200, 1, 0.5)
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls == 1 {
			return statusErr(429)
		}
		return nil
	}, lim, fastConfig(3))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.InDelta(t, 50, lim.CurrentLimit(), 0.001)
}

func TestLimiterClamps(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1, 3, 5, 0.1)
	lim.RateLimited()
	assert.InDelta(t, 1, lim.CurrentLimit(), 0.001)

	lim.lastError = time.Time{}
	lim.Success()
	assert.InDelta(t, 3, lim.CurrentLimit(), 0.001)
}

func TestClassifier(t *testing.T) {
	assert.True(t, DefaultClassifier(statusErr(429)))
	assert.True(t, DefaultClassifier(statusErr(502)))
	assert.False(t, DefaultClassifier(statusErr(404)))
	assert.False(t, DefaultClassifier(errors.New("plain")))
}

func TestNewLimiterBurstFollowsInitialRate(t *testing.T) {
	lim := NewAdaptiveLimiter(5, 0, 10, 1, 0.5)
	assert.Equal(t, 5, lim.limiter.Burst())
	assert.InDelta(t, 1, float64(lim.minLimit), 0.001)
	assert.InDelta(t, 10, float64(lim.maxLimit), 0.001)

	lim = NewAdaptiveLimiter(0.2, 1, 10, 1, 0.5)
	assert.Equal(t, 1, lim.limiter.Burst())
}
