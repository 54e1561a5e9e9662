package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoll(t *testing.T) {
	t.Run("stops on first success", func(t *testing.T) {
		calls := 0
		err := Fixed(5, 0).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
			calls++
			return attempt == 3, nil
		})
		if err != nil {
			t.Fatalf("Poll() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("exhausts after max attempts", func(t *testing.T) {
		calls := 0
		err := Fixed(180, 0).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
			calls++
			return false, nil
		})
		if !errors.Is(err, ErrExhausted) {
			t.Fatalf("expected ErrExhausted, got %v", err)
		}
		if calls != 180 {
			t.Errorf("expected 180 calls, got %d", calls)
		}
	})

	t.Run("success on last attempt is not exhaustion", func(t *testing.T) {
		err := Fixed(4, 0).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
			return attempt == 4, nil
		})
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("condition error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := Fixed(10, 0).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
			calls++
			return false, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("cancelled context stops the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		done := make(chan error, 1)
		go func() {
			done <- Fixed(3, time.Hour).Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
				calls++
				return false, nil
			})
		}()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
			if calls != 0 {
				t.Errorf("expected no calls, got %d", calls)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("wait was not interrupted")
		}
	})

	t.Run("already cancelled with zero delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Fixed(3, 0).Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
			t.Error("condition should not run")
			return false, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("waits before the first attempt", func(t *testing.T) {
		start := time.Now()
		err := Fixed(1, 20*time.Millisecond).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
			if time.Since(start) < 20*time.Millisecond {
				t.Error("condition checked before the delay elapsed")
			}
			return true, nil
		})
		if err != nil {
			t.Errorf("Poll() error = %v", err)
		}
	})

	t.Run("zero attempts", func(t *testing.T) {
		err := Fixed(0, 0).Poll(context.Background(), func(ctx context.Context, attempt int) (bool, error) {
			t.Error("condition should not run")
			return true, nil
		})
		if !errors.Is(err, ErrExhausted) {
			t.Errorf("expected ErrExhausted, got %v", err)
		}
	})
}

func TestBudget(t *testing.T) {
	tc := []struct {
		name   string
		policy Policy
		want   time.Duration
	}{
		{name: "fixed default", policy: Fixed(180, 5*time.Second), want: 15 * time.Minute},
		{name: "backoff capped", policy: Backoff(4, time.Second, 3*time.Second), want: 1*time.Second + 2*time.Second + 3*time.Second + 3*time.Second},
		{name: "empty", policy: Policy{}, want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Budget(); got != tt.want {
				t.Errorf("Budget() = %v, want %v", got, tt.want)
			}
		})
	}
}
