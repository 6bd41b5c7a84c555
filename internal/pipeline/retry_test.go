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
	"testing"
	"time"

	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
)

// recordSleep records requested delays without waiting.
type recordSleep struct {
	delays []time.Duration
}

func (s *recordSleep) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func TestWithRetrySucceedsAfterFailure(t *testing.T) {
	rec := &recordSleep{}
	p := RetryPolicy{Retries: 1, Delay: 5 * time.Minute}

	calls := 0
	got, err := withRetry(context.Background(), p, rec.sleep, "op", func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("connection reset by peer")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 2 {
		t.Errorf("got %d after %d calls, want 42 after 2", got, calls)
	}
	if len(rec.delays) != 1 || rec.delays[0] != 5*time.Minute {
		t.Errorf("delays = %v, want [5m]", rec.delays)
	}
}

func TestWithRetryExhausted(t *testing.T) {
	rec := &recordSleep{}
	p := RetryPolicy{Retries: 2, Delay: time.Second}
	boom := errors.New("boom")

	calls := 0
	_, err := withRetry(context.Background(), p, rec.sleep, "op", func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(rec.delays) != 2 {
		t.Errorf("slept %d times, want 2", len(rec.delays))
	}
}

func TestWithRetryNoRetries(t *testing.T) {
	rec := &recordSleep{}
	boom := errors.New("boom")

	calls := 0
	_, err := withRetry(context.Background(), RetryPolicy{}, rec.sleep, "op", func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if err != boom {
		t.Errorf("err = %v, want boom unwrapped", err)
	}
	if calls != 1 || len(rec.delays) != 0 {
		t.Errorf("calls = %d, sleeps = %d", calls, len(rec.delays))
	}
}

func TestWithRetryFinalErrors(t *testing.T) {
	for _, final := range []error{
		fmt.Errorf("%w: waste.csv", ingest.ErrSourceNotFound),
		fmt.Errorf("%w: waste: file is empty", ingest.ErrValidation),
		context.Canceled,
	} {
		rec := &recordSleep{}
		calls := 0
		_, err := withRetry(context.Background(), RetryPolicy{Retries: 3}, rec.sleep, "op",
			func(ctx context.Context) (int, error) {
				calls++
				return 0, final
			})
		if !errors.Is(err, final) {
			t.Errorf("err = %v, want %v", err, final)
		}
		if calls != 1 {
			t.Errorf("%v: calls = %d, want 1", final, calls)
		}
	}
}

func TestWithRetryCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := withRetry(ctx, RetryPolicy{Retries: 3, Delay: time.Hour}, sleepContext, "op",
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("transient")
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if !IsRetryable(errors.New("connection refused")) {
		t.Error("generic errors should be retryable")
	}
	if IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)) {
		t.Error("deadline exceeded should not be retryable")
	}
}
