package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), RetryConfig{Name: "test", Attempts: 3, BaseDelay: time.Millisecond}, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("Retry() = %v, want nil", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), RetryConfig{Name: "test", Attempts: 3, BaseDelay: time.Millisecond}, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Retry() = %v, want nil", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("exhausts attempts and wraps last error", func(t *testing.T) {
		sentinel := errors.New("device busy")
		calls := 0
		err := Retry(context.Background(), RetryConfig{Name: "test", Attempts: 4, BaseDelay: time.Millisecond}, func() error {
			calls++
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("Retry() = %v, want wrapped %v", err, sentinel)
		}
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Retry(ctx, RetryConfig{Name: "test"}, func() error {
			t.Error("fn called with cancelled context")
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Retry() = %v, want context.Canceled", err)
		}
	})
}
