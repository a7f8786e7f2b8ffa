package upstream

import (
	"context"
	"sync"
	"time"

	"github.com/restockhq/restock-backend/pkg/metrics"
)

type refreshResult struct {
	token string
	err   error
}

// refreshCoordinator serializes credential refreshes: at most one refresh is
// in flight per client. Callers that hit an auth failure while one is running
// join the waiter queue and receive the leader's outcome, so a burst of
// rejected calls produces exactly one refresh round.
type refreshCoordinator struct {
	source         TokenSource
	refreshToken   string
	refreshTimeout time.Duration
	invalidate     SessionInvalidator
	metrics        *metrics.UpstreamMetrics

	mu      sync.Mutex
	token   string
	leading bool
	waiters []chan refreshResult
}

func newRefreshCoordinator(source TokenSource, refreshToken, initialToken string, refreshTimeout time.Duration, invalidate SessionInvalidator, m *metrics.UpstreamMetrics) *refreshCoordinator {
	return &refreshCoordinator{
		source:         source,
		refreshToken:   refreshToken,
		refreshTimeout: refreshTimeout,
		invalidate:     invalidate,
		metrics:        m,
		token:          initialToken,
	}
}

// Token returns the current access token.
func (c *refreshCoordinator) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Refresh returns a fresh access token. used is the token the caller was
// rejected with: when a finished round has already replaced it, the installed
// token is returned without starting a new round. Otherwise the first caller
// becomes the leader and performs the refresh; everyone arriving while it
// runs queues and is resolved once with the leader's outcome, success or
// failure alike.
func (c *refreshCoordinator) Refresh(ctx context.Context, used string) (string, error) {
	c.mu.Lock()
	if c.token != used {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	if c.leading {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()
		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.leading = true
	c.mu.Unlock()

	return c.lead(ctx)
}

func (c *refreshCoordinator) lead(ctx context.Context) (string, error) {
	c.metrics.IncRefreshAttempt()

	// the leader refreshes on behalf of the whole queue, so one caller's
	// cancellation must not abort the shared round; the timeout bounds it
	refreshCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc = func() {}
	if c.refreshTimeout > 0 {
		refreshCtx, cancel = context.WithTimeout(refreshCtx, c.refreshTimeout)
	}
	token, err := c.source.Refresh(refreshCtx, c.refreshToken)
	cancel()

	c.mu.Lock()
	if err == nil {
		c.token = token
	}
	queued := c.waiters
	c.waiters = nil
	c.leading = false
	c.mu.Unlock()

	for _, waiter := range queued {
		waiter <- refreshResult{token: token, err: err}
	}

	if err != nil {
		c.metrics.IncRefreshFailure()
		if c.invalidate != nil {
			c.invalidate(ctx)
		}
		return "", err
	}
	c.metrics.IncRefreshSuccess()
	return token, nil
}
