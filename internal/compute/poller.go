package compute

import (
	"context"
	"time"

	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

// ProbeResult is one observation of a remote condition.
type ProbeResult struct {
	Done bool
	Err  error
}

// Probe checks a remote condition once. A non-nil Err with Done false is
// transient and consumes an attempt; Done true ends the wait.
type Probe func(ctx context.Context) ProbeResult

// Poller waits for remote conditions with a fixed interval and a hard
// attempt ceiling. Remote jobs can hang forever; the ceiling converts
// that into a typed timeout the campaign loop can record and move past.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewPoller constructs a poller with defaults applied.
func NewPoller(interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 240
	}
	return &Poller{Interval: interval, MaxAttempts: maxAttempts}
}

// Wait runs the probe until it reports done, the attempt ceiling is hit
// or the context ends. The first probe fires immediately; failures after
// the last attempt surface as ErrPollTimeout wrapping the final error.
func (p *Poller) Wait(ctx context.Context, probe Probe) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result := probe(ctx)
		if result.Done {
			return result.Err
		}
		lastErr = result.Err

		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Interval):
		}
	}
	if lastErr != nil {
		return appErrors.Wrap(lastErr, appErrors.ErrPollTimeout.Code, appErrors.ErrPollTimeout.Status, appErrors.ErrPollTimeout.Message)
	}
	return appErrors.ErrPollTimeout
}
