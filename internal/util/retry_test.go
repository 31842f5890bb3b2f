package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoff(t *testing.T) {
	transient := errors.New("status 502")
	notFound := errors.New("status 404")

	tests := []struct {
		name       string
		maxRetries int
		failUntil  int   // attempts below this fail with transient
		always     error // when set, every attempt returns it
		wantCalls  int
		wantErr    error
	}{
		{name: "first try", maxRetries: 3, wantCalls: 1},
		{name: "recovers after one failure", maxRetries: 2, failUntil: 1, wantCalls: 2},
		{name: "zero retries", maxRetries: 0, always: transient, wantCalls: 1, wantErr: transient},
		{name: "exhausted", maxRetries: 1, always: transient, wantCalls: 2, wantErr: transient},
		{name: "permanent stops at once", maxRetries: 3, always: Permanent(notFound), wantCalls: 1, wantErr: notFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), tt.maxRetries, func(attempt int) error {
				calls++
				if tt.always != nil {
					return tt.always
				}
				if attempt < tt.failUntil {
					return transient
				}
				return nil
			})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if calls != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, calls)
			}
		})
	}
}

func TestRetryWithBackoff_PermanentIsUnwrapped(t *testing.T) {
	cause := errors.New("success=false")
	err := RetryWithBackoff(context.Background(), 2, func(int) error { return Permanent(cause) })
	if err != cause {
		t.Errorf("Expected the bare cause, got %#v", err)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestRetryWithBackoff_CancelledContextSkipsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RetryWithBackoff(ctx, 3, func(int) error { return errors.New("unreachable host") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected no backoff wait after cancellation, took %v", elapsed)
	}
}
