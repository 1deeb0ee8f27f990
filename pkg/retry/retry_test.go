package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, &Config{MaxAttempts: 3, Backoff: &ConstantBackoff{}})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{}})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	failure := errors.New("upload rejected")
	err := Do(func() error {
		calls++
		return failure
	}, &Config{MaxAttempts: 4, Backoff: &ConstantBackoff{}})

	require.Error(t, err)
	assert.Equal(t, 4, calls, "MaxAttempts bounds total attempts, first included")
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "all 4 attempts failed")
}

func TestDoRetryIfStopsEarly(t *testing.T) {
	calls := 0
	fatal := errors.New("fatal")
	err := Do(func() error {
		calls++
		return fatal
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{},
		RetryIf:     func(err error) bool { return !errors.Is(err, fatal) },
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	_ = Do(func() error {
		return errors.New("transient")
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{},
		OnRetry:     func(attempt int, err error) { attempts = append(attempts, attempt) },
	})

	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(func() error {
		calls++
		return errors.New("transient")
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Context:     ctx,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWait(t *testing.T) {
	t.Run("ZeroDelayLiveContext", func(t *testing.T) {
		assert.NoError(t, Wait(context.Background(), 0))
	})

	t.Run("ZeroDelayCancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Wait(ctx, 0), context.Canceled)
	})

	t.Run("CancelInterruptsDelay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go cancel()
		assert.ErrorIs(t, Wait(ctx, time.Minute), context.Canceled)
	})
}

func TestConstantBackoff(t *testing.T) {
	cb := &ConstantBackoff{Delay: 2 * time.Second}
	assert.Equal(t, 2*time.Second, cb.NextDelay(1))
	assert.Equal(t, 2*time.Second, cb.NextDelay(10))
	assert.Equal(t, time.Duration(0), cb.NextDelay(0))
}

func TestExponentialBackoff(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 4*time.Second, eb.NextDelay(3))
	assert.Equal(t, 10*time.Second, eb.NextDelay(10), "capped at MaxDelay")
}
