package ingest

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

// RetryPolicy is exponential backoff for remote loads.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy retries a remote source three times, starting at one second.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:       3,
	InitialDelay:      1 * time.Second,
	MaxDelay:          30 * time.Second,
	BackoffMultiplier: 2.0,
}

// permanentError marks failures that a retry cannot fix, such as a 404.
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

func permanent(err error) error { return permanentError{err: err} }

// delay returns the wait before the given retry (1-based), capped at MaxDelay.
func (p RetryPolicy) delay(retry int) time.Duration {
	mult := p.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(mult, float64(retry-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// do runs op until it succeeds, fails permanently, runs out of attempts or ctx ends.
func (p RetryPolicy) do(ctx context.Context, logger *slog.Logger, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) || attempt == attempts {
			break
		}

		wait := p.delay(attempt)
		logger.Warn("load attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
