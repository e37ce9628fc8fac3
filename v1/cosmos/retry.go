package cosmos

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// call runs fn with a per-attempt timeout and retries it with exponential
// backoff while the failure is transient.
//
// Idempotent calls retry on any ErrService or ErrNetwork failure.
// Non-idempotent calls retry only on statuses where the service guarantees
// the request had no effect. Cancellation of ctx stops retrying at once.
func (c *Client) call(ctx context.Context, op string, idempotent bool, fn func(ctx context.Context) error) error {
	return c.retry(ctx, op, idempotent, false, fn)
}

// callDetached is call for work that must not be torn down half way: each
// attempt runs on a context detached from ctx's cancellation, while ctx
// still decides whether another attempt may start.
func (c *Client) callDetached(ctx context.Context, op string, idempotent bool, fn func(ctx context.Context) error) error {
	return c.retry(ctx, op, idempotent, true, fn)
}

func (c *Client) retry(ctx context.Context, op string, idempotent, detached bool, fn func(ctx context.Context) error) error {
	attemptCtx := ctx
	if detached {
		attemptCtx = context.WithoutCancel(ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInitialInterval
	b.MaxInterval = c.cfg.RetryMaxInterval
	b.MaxElapsedTime = 0

	attempts := c.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		// The backoff timer and ctx.Done may fire together.
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(translateError(op, err))
		}
		attempt++
		callCtx, cancel := context.WithTimeout(attemptCtx, c.cfg.RequestTimeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		terr := translateError(op, err)
		if cerr := ctx.Err(); cerr != nil {
			if detached {
				// The attempt was sent; report what came back.
				return backoff.Permanent(terr)
			}
			return backoff.Permanent(translateError(op, cerr))
		}
		if !shouldRetry(terr, idempotent) {
			return backoff.Permanent(terr)
		}
		return terr
	}, policy, func(err error, wait time.Duration) {
		c.logWarn(ctx, "[Cosmos] retrying after transient failure", err, map[string]interface{}{
			"operation": op,
			"attempt":   attempt,
			"wait_ms":   wait.Milliseconds(),
		})
	})
	if err == nil {
		return nil
	}
	return translateError(op, err)
}

func shouldRetry(err *Error, idempotent bool) bool {
	if err.Kind != KindService && err.Kind != KindNetwork {
		return false
	}
	if idempotent {
		return true
	}
	return isSafeToRetryNonIdempotent(err)
}
