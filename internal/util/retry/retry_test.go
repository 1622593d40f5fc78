package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBackoffSucceedsAfterFailures(t *testing.T) {
	t.Parallel()
	calls := 0

	err := WithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	t.Parallel()
	calls := 0
	boom := errors.New("boom")

	err := WithBackoff(context.Background(), func() error {
		calls++
		return boom
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffStopsOnFatal(t *testing.T) {
	t.Parallel()
	calls := 0

	err := WithBackoff(context.Background(), func() error {
		calls++
		return Fatal(errors.New("bad credentials"))
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffRespectsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithBackoff(ctx, func() error {
		return errors.New("transient")
	}, WithMaxAttempts(5), WithInitialDelay(time.Hour))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixedReportsAttemptCount(t *testing.T) {
	t.Parallel()
	calls := 0

	attempts, err := Fixed(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not ready")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestFixedExhausted(t *testing.T) {
	t.Parallel()
	attempts, err := Fixed(context.Background(), 2, time.Millisecond, func() error {
		return errors.New("never ready")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestFatalRoundTrip(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Fatal(nil))

	inner := errors.New("inner")
	wrapped := Fatal(inner)
	assert.True(t, IsFatal(wrapped))
	assert.ErrorIs(t, wrapped, inner)
	assert.False(t, IsFatal(inner))
}
