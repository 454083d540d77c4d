package service

import (
	"context"
	"time"
)

// RetryPolicy governs retry behavior for a repository call made from inside a
// worker trigger. spec.md §7 treats repository failure as logged and
// surfaced to the trigger's caller; a policy with Attempts > 1 lets a
// transient I/O error on the flow-file/content/provenance repository recover
// before the component is penalised.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy preserves current behavior (single attempt, no backoff).
var DefaultRetryPolicy = RetryPolicy{
	Attempts:       1,
	InitialBackoff: 0,
	MaxBackoff:     0,
	Multiplier:     1,
}

// Retry executes fn with the provided policy. It returns the last error (if
// any), or ctx.Err() if ctx is cancelled while waiting between attempts.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = 1
	}
	backoff := policy.InitialBackoff
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if err := fn(); err != nil {
			if attempt == policy.Attempts {
				return err
			}
			// Apply backoff before next attempt if requested.
			if backoff > 0 {
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}
				next := time.Duration(float64(backoff) * policy.Multiplier)
				if policy.MaxBackoff > 0 && next > policy.MaxBackoff {
					next = policy.MaxBackoff
				}
				backoff = next
			}
			continue
		}
		return nil
	}
	return nil
}
