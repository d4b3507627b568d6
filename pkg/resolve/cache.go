package resolve

import (
	"context"
	"sync"

	"github.com/imperugo/sqs-dispatch/pkg/metrics"
)

// Cached memoizes successful resolutions of an underlying Resolver.
//
// Cached is safe for concurrent use. Resolution is a pure function of the
// name, so two goroutines racing on a cold key may both hit the backend; the
// second write is idempotent. Failed lookups are not cached.
type Cached struct {
	inner   Resolver
	metrics *metrics.Metrics

	mu   sync.RWMutex
	urls map[string]string
}

// NewCached wraps inner with an in-memory queue URL cache. The metrics
// argument may be nil.
func NewCached(inner Resolver, m *metrics.Metrics) (*Cached, error) {
	if inner == nil {
		return nil, ErrInvalidResolver
	}
	return &Cached{
		inner:   inner,
		metrics: m,
		urls:    make(map[string]string),
	}, nil
}

// Resolve returns the cached URL for name, falling back to the underlying
// resolver on a miss.
func (c *Cached) Resolve(ctx context.Context, name string) (string, error) {
	c.mu.RLock()
	url, ok := c.urls[name]
	c.mu.RUnlock()
	c.metrics.RecordCacheOutcome(ok)
	if ok {
		return url, nil
	}

	url, err := c.inner.Resolve(ctx, name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.urls[name] = url
	c.mu.Unlock()
	return url, nil
}

// Invalidate removes name from the cache, forcing the next Resolve to hit the
// underlying resolver. Useful after a queue is recreated.
func (c *Cached) Invalidate(name string) {
	c.mu.Lock()
	delete(c.urls, name)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.urls)
}
