// Package retry re-runs remote calls that failed for transport reasons.
package retry

import (
	"context"
	"time"

	"github.com/velourdrapes/backoffice/internal/api"
)

// Defaults used when a Policy field is zero.
const (
	DefaultRetries = 2
	DefaultDelay   = time.Second
)

// Policy decides how often and when a failed call runs again.
type Policy struct {
	// Retries is the number of additional attempts after the first.
	Retries int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// Retryable reports whether err is worth another attempt. Nil means
	// api.IsTransport: server validation failures are final.
	Retryable func(error) bool
}

// Default returns the policy shared by every mutation.
func Default() Policy {
	return Policy{Retries: DefaultRetries, Delay: DefaultDelay, Retryable: api.IsTransport}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = api.IsTransport
	}
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}

	var (
		out T
		err error
	)
	for attempt := 0; ; attempt++ {
		out, err = fn(ctx)
		if err == nil || attempt >= retries || !retryable(err) {
			return out, err
		}
		if waitErr := sleep(ctx, p.Delay); waitErr != nil {
			return out, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
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
