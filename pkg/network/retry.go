package network

import (
	"context"
	"errors"
	"log"
	"time"
)

// RetryPolicy controls how transport failures are retried. Rejections by
// the relay are never retried.
type RetryPolicy struct {
	MaxAttempts    int // 1 or less means a single attempt
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NoRetry performs every request exactly once
var NoRetry = RetryPolicy{MaxAttempts: 1}

// DefaultRetryPolicy backs off from one second up to thirty
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    4,
	InitialBackoff: time.Second,
	MaxBackoff:     30 * time.Second,
}

// retry runs op until it succeeds, fails with a non-transport error, the
// attempts are exhausted or ctx is done
func (p RetryPolicy) retry(ctx context.Context, op func() error) error {
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff < backoff {
		maxBackoff = backoff
	}

	attempt := 1
	for {
		err := op()
		if err == nil || !errors.Is(err, ErrTransport) || attempt >= p.MaxAttempts {
			return err
		}

		log.Printf("🔄 Request failed (%v), retrying in %v...", err, backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		attempt++
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
