package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy parameterizes the exponential backoff applied to an external call.
// It replaces ad hoc sleep-and-retry loops around rate-limited providers.
type Policy struct {
	MaxTries        uint
	InitialInterval time.Duration
}

// DefaultPolicy is tuned for third-party API calls: short first delay,
// a few attempts, then give up and let the caller degrade.
var DefaultPolicy = Policy{
	MaxTries:        3,
	InitialInterval: 500 * time.Millisecond,
}

// Do runs op under the given policy, retrying with exponential backoff until
// it succeeds, the attempts are exhausted, or ctx is cancelled.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		bo.InitialInterval = p.InitialInterval
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(p.MaxTries),
	)
}

// Permanent marks err as non-retryable so Do returns immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
