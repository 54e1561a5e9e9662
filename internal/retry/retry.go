// Package retry runs bounded polling loops with a context-aware wait between attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned by [Policy.Poll] when every attempt ran without the condition holding.
var ErrExhausted = errors.New("retry budget exhausted")

// Policy describes how many times to poll and how long to wait before each attempt.
//
// Delay is waited before every attempt, including the first. When Multiplier is
// greater than 1 the delay grows after each attempt and is capped at MaxDelay
// (if set).
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// Fixed returns a policy with a constant delay.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Delay: delay}
}

// Backoff returns a policy whose delay doubles after each attempt up to max.
func Backoff(attempts int, initial, max time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Delay: initial, MaxDelay: max, Multiplier: 2}
}

// Condition is checked once per attempt. attempt counts from 1.
// Returning done=true stops polling; a non-nil error aborts it.
type Condition func(ctx context.Context, attempt int) (done bool, err error)

// Poll waits, checks cond and repeats until cond reports done, cond fails,
// ctx is cancelled or MaxAttempts is reached.
//
// A terminal result on the final attempt counts as success.
func (p Policy) Poll(ctx context.Context, cond Condition) error {
	delay := p.Delay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := wait(ctx, delay); err != nil {
			return err
		}

		done, err := cond(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		delay = p.next(delay)
	}
	return ErrExhausted
}

// Budget returns the total time spent waiting if every attempt runs.
func (p Policy) Budget() time.Duration {
	var total time.Duration
	delay := p.Delay
	for range p.MaxAttempts {
		total += delay
		delay = p.next(delay)
	}
	return total
}

func (p Policy) next(delay time.Duration) time.Duration {
	if p.Multiplier <= 1 {
		return delay
	}
	delay = time.Duration(float64(delay) * p.Multiplier)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
