package api

import (
	"context"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// Operation is a fallible call that can be replayed with the same arguments.
type Operation[A, T any] interface {
	Invoke(ctx context.Context, args A) (T, error)
}

// OperationFunc adapts a function to the Operation interface.
type OperationFunc[A, T any] func(ctx context.Context, args A) (T, error)

// Invoke calls f(ctx, args).
func (f OperationFunc[A, T]) Invoke(ctx context.Context, args A) (T, error) {
	return f(ctx, args)
}

// Retry invokes op with args up to attempts times, one attempt at a time and
// without delay between attempts. It returns the first success, or the error
// of the last attempt. A cancelled ctx stops further attempts and its error is
// returned.
//
// attempts must be at least 1; Retry panics otherwise.
func Retry[A, T any](ctx context.Context, attempts uint, op Operation[A, T], args A) (T, error) {
	return retryLogged(ctx, attempts, op, args, nil)
}

func retryLogged[A, T any](ctx context.Context, attempts uint, op Operation[A, T], args A, logger *zap.Logger) (T, error) {
	if attempts == 0 {
		panic("api: retry attempts must be at least 1")
	}

	return retry.DoWithData(
		func() (T, error) {
			if err := ctx.Err(); err != nil {
				var zero T
				return zero, retry.Unrecoverable(err)
			}
			return op.Invoke(ctx, args)
		},
		retry.Attempts(attempts),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			if logger != nil {
				logger.Debug("attempt failed",
					zap.Uint("attempt", n+1),
					zap.Uint("max_attempts", attempts),
					zap.Error(err))
			}
		}),
	)
}
