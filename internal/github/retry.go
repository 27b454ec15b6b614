package github

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	gh "github.com/google/go-github/v72/github"

	"github.com/openstax-kanban/issue-importer/internal/debug"
)

// newLookupBackOff returns a fresh policy for one lookup. BackOff values are
// stateful, so one is built per call. Tests replace it.
var newLookupBackOff = func(maxElapsed time.Duration) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// lookup runs an idempotent GET, retrying transient failures. Mutating calls
// must not go through here: a retried import could create a duplicate issue.
func (c *Client) lookup(ctx context.Context, op func() (*gh.Response, error)) error {
	if c.retryMaxElapsed <= 0 {
		_, err := op()
		return err
	}

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		_, err := op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		debug.Logf("transient GitHub error (attempt %d): %v\n", attempt, err)
		return err
	}, backoff.WithContext(newLookupBackOff(c.retryMaxElapsed), ctx))
}

// isTransient reports whether err is worth retrying: server-side failures and
// network errors. Client errors, including rate limits, are not.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if status := statusOf(err); status != 0 {
		return status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
