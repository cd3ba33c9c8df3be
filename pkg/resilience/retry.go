// Package resilience provides the two stateless primitives every step
// executor leans on: exponential-backoff retry for transient failures and a
// polling wait for IAM propagation of newly created identities.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

// RetryOptions tunes RetryWithBackoff. Zero values select the defaults.
type RetryOptions struct {
	// MaxRetries is the number of re-invocations after the first attempt.
	MaxRetries uint64
	// BaseDelay is the initial backoff interval; each retry doubles it.
	BaseDelay time.Duration
	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration
}

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
	defaultMaxDelay   = 30 * time.Second
)

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = defaultBaseDelay
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = defaultMaxDelay
	}
	return o
}

// RetryWithBackoff invokes operation, re-invoking it on retryable failures
// with delays of BaseDelay*2^attempt capped at MaxDelay, up to MaxRetries
// re-invocations. Non-retryable errors and exhaustion both propagate the last
// error unchanged, so callers can still classify the root cause.
func RetryWithBackoff[T any](ctx context.Context, operation func() (T, error), opts RetryOptions) (T, error) {
	opts = opts.withDefaults()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = opts.BaseDelay
	policy.MaxInterval = opts.MaxDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	var result T
	err := backoff.Retry(func() error {
		value, err := operation()
		if err != nil {
			if !cloud.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = value
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, opts.MaxRetries), ctx))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
