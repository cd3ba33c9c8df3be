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

func fastPropagation() PropagationOptions {
	return PropagationOptions{Interval: time.Millisecond, Timeout: 50 * time.Millisecond}
}

func TestWaitForPropagationSucceedsOnceVisible(t *testing.T) {
	probes := 0
	err := WaitForServiceAccountPropagation(context.Background(), func(context.Context) (bool, error) {
		probes++
		return probes >= 3, nil
	}, fastPropagation())

	require.NoError(t, err)
	assert.Equal(t, 3, probes)
}

func TestWaitForPropagationTimesOutDistinctly(t *testing.T) {
	err := WaitForServiceAccountPropagation(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	}, fastPropagation())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPropagationTimeout)
}

func TestWaitForPropagationToleratesTransientProbeErrors(t *testing.T) {
	probes := 0
	err := WaitForServiceAccountPropagation(context.Background(), func(context.Context) (bool, error) {
		probes++
		if probes < 2 {
			return false, cloud.Transient("get service account", errors.New("503"))
		}
		return true, nil
	}, fastPropagation())

	require.NoError(t, err)
}

func TestWaitForPropagationAbortsOnFatalProbeError(t *testing.T) {
	boom := cloud.Fatal("get service account", errors.New("permission denied"))
	err := WaitForServiceAccountPropagation(context.Background(), func(context.Context) (bool, error) {
		return false, boom
	}, fastPropagation())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPropagationTimeout)
}

func TestWaitForPropagationHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitForServiceAccountPropagation(ctx, func(context.Context) (bool, error) {
		return false, nil
	}, PropagationOptions{Interval: 10 * time.Millisecond, Timeout: time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
}
