package git

import (
	"sync"
	"time"
)

// FetchFunc computes a fresh repository status. It may be slow; the cache is
// what amortizes that cost.
type FetchFunc func() (*RepoStatus, error)

// StatusCache wraps a synchronous, potentially slow status query behind a
// time-to-live cache with explicit invalidation.
//
// Access is serialized: callers during a refresh block until the in-flight
// fetch completes, so a fetch never runs twice for the same expiry and reads
// are never torn. A failed fetch is recorded as absent and not retried until
// the TTL elapses again (or Invalidate is called).
type StatusCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	fetch      FetchFunc
	value      *RepoStatus
	capturedAt time.Time
	valid      bool
	lastErr    error
}

// NewStatusCache creates a cache around fetch with the given TTL.
func NewStatusCache(ttl time.Duration, fetch FetchFunc) *StatusCache {
	return &StatusCache{
		ttl:   ttl,
		fetch: fetch,
	}
}

// Get returns the cached status if it is still fresh, refreshing it
// synchronously otherwise. A nil return means no status is available: either
// no repository exists or the last fetch failed inside the current window.
func (c *StatusCache) Get() *RepoStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && time.Since(c.capturedAt) < c.ttl {
		return c.value
	}

	status, err := c.fetch()
	if err != nil {
		// Sticky-absent: the failure is cached like a value so the next
		// window, not the next call, pays for the retry.
		status = nil
	}
	c.value = status
	c.lastErr = err
	c.capturedAt = time.Now()
	c.valid = true

	return c.value
}

// Peek returns the latest snapshot without triggering a refresh, regardless
// of freshness. Used by heartbeat output.
func (c *StatusCache) Peek() *RepoStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Invalidate forces the next Get to refresh regardless of elapsed time.
func (c *StatusCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}

// LastError returns the error recorded by the most recent fetch, or nil.
func (c *StatusCache) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
