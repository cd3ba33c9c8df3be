package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

func fastRetry() RetryOptions {
	return RetryOptions{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryWithBackoffSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	value, err := RetryWithBackoff(context.Background(), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", cloud.Transient("enable api", errors.New("rate limited"))
		}
		return "done", nil
	}, fastRetry())

	require.NoError(t, err)
	assert.Equal(t, "done", value)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffStopsOnConfigError(t *testing.T) {
	attempts := 0
	boom := cloud.Config("create gateway", errors.New("malformed project id"))
	_, err := RetryWithBackoff(context.Background(), func() (string, error) {
		attempts++
		return "", boom
	}, fastRetry())

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "config errors must not be retried")
	assert.True(t, errors.Is(err, boom) || err.Error() == boom.Error())
	assert.Equal(t, cloud.KindConfig, cloud.KindOf(err))
}

func TestRetryWithBackoffExhaustionReturnsLastErrorUnchanged(t *testing.T) {
	attempts := 0
	last := cloud.Transient("deploy function", errors.New("503"))
	_, err := RetryWithBackoff(context.Background(), func() (int, error) {
		attempts++
		return 0, last
	}, fastRetry())

	require.Error(t, err)
	assert.Equal(t, 4, attempts, "initial attempt plus MaxRetries re-invocations")
	assert.Equal(t, last.Error(), err.Error())
	assert.True(t, cloud.IsRetryable(err), "classification survives exhaustion")
}

func TestRetryWithBackoffHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := RetryWithBackoff(ctx, func() (int, error) {
		attempts++
		cancel()
		return 0, cloud.Transient("probe", errors.New("timeout"))
	}, RetryOptions{MaxRetries: 10, BaseDelay: 50 * time.Millisecond})

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 2)
}
