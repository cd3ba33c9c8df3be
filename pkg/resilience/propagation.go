package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

// ErrPropagationTimeout marks a propagation wait that ran out of time. The
// underlying resource may still become usable; the caller can surface resume
// guidance instead of a generic failure.
var ErrPropagationTimeout = errors.New("service account propagation timed out")

// PropagationOptions tunes WaitForServiceAccountPropagation. Zero values
// select the defaults.
type PropagationOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

const (
	defaultProbeInterval      = 2 * time.Second
	defaultPropagationTimeout = time.Minute
)

// WaitForServiceAccountPropagation polls probe at a fixed interval until it
// reports true or the overall timeout elapses. A probe returning false with a
// nil error means the identity is not visible yet; probe errors abort the wait
// only when they are not retryable.
func WaitForServiceAccountPropagation(ctx context.Context, probe func(context.Context) (bool, error), opts PropagationOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = defaultProbeInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPropagationTimeout
	}

	deadline := time.Now().Add(opts.Timeout)
	for {
		ok, err := probe(ctx)
		if err != nil && !cloud.IsRetryable(err) {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().Add(opts.Interval).After(deadline) {
			return fmt.Errorf("%w after %s", ErrPropagationTimeout, opts.Timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.Interval):
		}
	}
}
