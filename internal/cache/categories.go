package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/core"
	"spendtrack/internal/session"
)

// sharedLoadTimeout bounds a load shared by several requests, which no
// longer follows any single caller's cancellation.
const sharedLoadTimeout = 15 * time.Second

// CategoryLoader fetches the category list for a session.
type CategoryLoader func(ctx context.Context, s *session.Session) ([]core.Category, error)

// CategoryOptions caches category lists keyed by credential fingerprint.
// Concurrent misses for the same credential share one API call.
type CategoryOptions struct {
	lru   *LRUCache[[]core.Category]
	group singleflight.Group
	load  CategoryLoader

	// tokens marks the in-flight load per key. Invalidate drops the token
	// so a load that started earlier does not store a stale list.
	mu     sync.Mutex
	seq    uint64
	tokens map[string]uint64
}

func NewCategoryOptions(load CategoryLoader, maxSessions int, ttl time.Duration) *CategoryOptions {
	return &CategoryOptions{
		lru:    NewLRUCache[[]core.Category](maxSessions, ttl),
		load:   load,
		tokens: make(map[string]uint64),
	}
}

// Get returns the categories visible to s, from cache when fresh.
func (c *CategoryOptions) Get(ctx context.Context, s *session.Session) ([]core.Category, error) {
	key := s.Fingerprint()
	if key == "" {
		return c.load(ctx, s)
	}
	if cats, ok := c.lru.Get(key); ok {
		return slices.Clone(cats), nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		token := c.begin(key)
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		cats, err := c.load(loadCtx, s)
		c.finish(key, token, cats, err)
		if err != nil {
			return nil, err
		}
		return cats, nil
	})
	if err != nil {
		// the call may have run under another request's session
		if shared && apiclient.IsUnauthorized(err) {
			s.Invalidate(session.ReasonUnauthorized)
		}
		return nil, err
	}
	return slices.Clone(v.([]core.Category)), nil
}

func (c *CategoryOptions) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.tokens[key] = c.seq
	return c.seq
}

// finish caches cats unless key was invalidated while the load ran.
func (c *CategoryOptions) finish(key string, token uint64, cats []core.Category, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens[key] != token {
		return
	}
	delete(c.tokens, key)
	if err == nil {
		c.lru.Set(key, cats)
	}
}

// Invalidate drops the cached list for s after a category mutation.
// Other credentials' entries and loads are unaffected.
func (c *CategoryOptions) Invalidate(s *session.Session) {
	key := s.Fingerprint()
	if key == "" {
		return
	}
	c.mu.Lock()
	delete(c.tokens, key)
	c.lru.Delete(key)
	c.mu.Unlock()
	c.group.Forget(key)
}

func (c *CategoryOptions) CleanExpired() int { return c.lru.CleanExpired() }

func (c *CategoryOptions) Size() int { return c.lru.Size() }
