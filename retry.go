package extractkit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryInvoker retries transport failures of the wrapped Invoker with
// exponential backoff. Extraction-level failures never reach it: it only sees
// Generate errors, and context cancellation stops it.
type RetryInvoker struct {
	next     Invoker
	attempts uint
	delay    time.Duration
	log      *slog.Logger
}

// WithRetry wraps next so that up to maxRetries additional attempts are made.
// maxRetries <= 0 returns next unchanged.
func WithRetry(next Invoker, maxRetries int, backoff time.Duration, log *slog.Logger) Invoker {
	if maxRetries <= 0 {
		return next
	}
	if log == nil {
		log = slog.Default()
	}
	return &RetryInvoker{next: next, attempts: uint(maxRetries) + 1, delay: backoff, log: log}
}

func (r *RetryInvoker) Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error) {
	var out []byte
	err := retry.Do(
		func() error {
			b, err := r.next.Generate(ctx, model, prompt, params)
			if err != nil {
				return err
			}
			out = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.log.Debug("Attempt failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
