package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry runs op up to maxRetries extra times with exponential backoff.
// Errors for which permanent returns true stop the loop immediately and
// are returned unwrapped.
func Retry[T any](ctx context.Context, maxRetries int, permanent func(error) bool, op func() (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second

	var b backoff.BackOff = backoff.WithMaxRetries(policy, uint64(max(maxRetries, 0)))
	b = backoff.WithContext(b, ctx)

	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && permanent != nil && permanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b)
}
