//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
)

// RetryPolicy re-runs a failed operation a bounded number of times with a
// fixed delay between attempts.
type RetryPolicy struct {
	// Retries is the number of extra attempts after the first.
	Retries int

	// Delay is the wait between attempts.
	Delay time.Duration
}

// IsRetryable reports whether a failed operation is worth another attempt.
// Missing source files, validation failures and cancellation are final.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ingest.ErrSourceNotFound),
		errors.Is(err, ingest.ErrValidation),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withRetry runs op until it succeeds, fails with a final error, or the
// policy is exhausted.
func withRetry[T any](ctx context.Context, p RetryPolicy, sleep sleepFunc, name string, op func(context.Context) (T, error)) (T, error) {
	attempts := p.Retries + 1
	var result T
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			if attempt > 1 {
				logging.Info().
					Str("operation", name).
					Int("attempt", attempt).
					Msg("Operation succeeded after retry")
			}
			return result, nil
		}

		if !IsRetryable(err) {
			return result, err
		}

		if attempt == attempts {
			if attempts > 1 {
				return result, fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
			}
			return result, err
		}

		logging.Warn().
			Err(err).
			Str("operation", name).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("retry_in", p.Delay).
			Msg("Operation failed, retrying")

		if serr := sleep(ctx, p.Delay); serr != nil {
			return result, fmt.Errorf("%s: retry aborted: %w", name, serr)
		}
	}

	return result, err
}
