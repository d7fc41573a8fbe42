package research

import (
	"context"
	"sync"
	"time"

	"deepresearch/internal/brave"
)

// RateLimitedSearchClient spaces calls to the underlying search client by a
// minimum interval. One instance is shared by every search task in the
// process; acquisition order among waiting tasks is not guaranteed.
type RateLimitedSearchClient struct {
	inner       SearchClient
	minInterval time.Duration

	mu            sync.Mutex
	nextAllowedAt time.Time
}

func NewRateLimitedSearchClient(inner SearchClient, minInterval time.Duration) SearchClient {
	if inner == nil || minInterval <= 0 {
		return inner
	}
	return &RateLimitedSearchClient{
		inner:       inner,
		minInterval: minInterval,
	}
}

func (c *RateLimitedSearchClient) Search(ctx context.Context, query string, count int) ([]brave.SearchResult, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}
	return c.inner.Search(ctx, query, count)
}

func (c *RateLimitedSearchClient) waitTurn(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		c.mu.Lock()
		now := time.Now()
		if c.nextAllowedAt.IsZero() || !c.nextAllowedAt.After(now) {
			c.nextAllowedAt = now.Add(c.minInterval)
			c.mu.Unlock()
			return nil
		}
		wait := time.Until(c.nextAllowedAt)
		c.mu.Unlock()

		if err := waitWithContext(ctx, wait); err != nil {
			return err
		}
	}
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
