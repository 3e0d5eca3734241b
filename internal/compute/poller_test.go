package compute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

func TestPollerDoneOnFirstAttempt(t *testing.T) {
	p := NewPoller(time.Millisecond, 3)

	calls := 0
	err := p.Wait(context.Background(), func(_ context.Context) ProbeResult {
		calls++
		return ProbeResult{Done: true}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPollerRetriesUntilDone(t *testing.T) {
	p := NewPoller(time.Millisecond, 10)

	calls := 0
	err := p.Wait(context.Background(), func(_ context.Context) ProbeResult {
		calls++
		return ProbeResult{Done: calls == 4}
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestPollerExhaustsAttempts(t *testing.T) {
	p := NewPoller(time.Millisecond, 3)

	calls := 0
	err := p.Wait(context.Background(), func(_ context.Context) ProbeResult {
		calls++
		return ProbeResult{}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPollTimeout.Code, appErr.Code)
}

func TestPollerTimeoutWrapsLastError(t *testing.T) {
	p := NewPoller(time.Millisecond, 2)

	probeErr := errors.New("still loading")
	err := p.Wait(context.Background(), func(_ context.Context) ProbeResult {
		return ProbeResult{Err: probeErr}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, probeErr)
}

func TestPollerDoneWithErrorReturnsIt(t *testing.T) {
	p := NewPoller(time.Millisecond, 5)

	jobErr := errors.New("job failed remotely")
	err := p.Wait(context.Background(), func(_ context.Context) ProbeResult {
		return ProbeResult{Done: true, Err: jobErr}
	})
	assert.ErrorIs(t, err, jobErr)
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	p := NewPoller(50*time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Wait(ctx, func(_ context.Context) ProbeResult {
		return ProbeResult{}
	})
	assert.ErrorIs(t, err, context.Canceled)
}
