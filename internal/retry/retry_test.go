package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func TestDoStopsAfterBoundedAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), time.Millisecond, 5*time.Millisecond, 3, func() error {
		attempts++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("exhausted retries should return the last error")
	}
	if attempts != 4 {
		t.Errorf("expected 1 initial + 3 retries = 4 attempts, got %d", attempts)
	}
}

func TestDoSucceedsMidway(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), time.Millisecond, 5*time.Millisecond, 5, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoPermanentErrorStopsImmediately(t *testing.T) {
	attempts := 0
	wantErr := errors.New("bad input")
	err := Do(context.Background(), time.Millisecond, 5*time.Millisecond, 5, func() error {
		attempts++
		return backoff.Permanent(wantErr)
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped permanent error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("permanent error must not be retried, got %d attempts", attempts)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, 50*time.Millisecond, time.Second, 10, func() error {
		attempts++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("cancelled context should abort the retry loop")
	}
	if attempts > 1 {
		t.Errorf("expected at most one attempt after cancellation, got %d", attempts)
	}
}

func TestDoZeroRetriesMeansSingleAttempt(t *testing.T) {
	attempts := 0
	_ = Do(context.Background(), time.Millisecond, time.Millisecond, 0, func() error {
		attempts++
		return errors.New("transient")
	})
	if attempts != 1 {
		t.Errorf("expected exactly one attempt, got %d", attempts)
	}
}
