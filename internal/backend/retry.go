package backend

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const retryAttempts = 3

// Retry runs op with exponential backoff, three attempts total.
// Only the health monitor uses this; the order, status, and delete
// workflows deliberately fail fast and leave retrying to the operator.
func Retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, retryAttempts-1), ctx))
}
