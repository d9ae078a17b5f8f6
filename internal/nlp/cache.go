package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedAnalyzer memoizes analyses by text so repeated refreshes do not
// re-analyze headlines that have not changed.
type CachedAnalyzer struct {
	next  Analyzer
	cache *gocache.Cache
}

// NewCachedAnalyzer wraps next with an in-memory cache. A zero ttl disables caching.
func NewCachedAnalyzer(next Analyzer, ttl time.Duration) Analyzer {
	if ttl <= 0 {
		return next
	}
	return &CachedAnalyzer{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, text string) (*Analysis, error) {
	key := cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v.(*Analysis), nil
	}
	a, err := c.next.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, a)
	return a, nil
}

// Check forwards to the wrapped analyzer when it supports readiness checks.
func (c *CachedAnalyzer) Check(ctx context.Context) error {
	if ch, ok := c.next.(Checker); ok {
		return ch.Check(ctx)
	}
	return nil
}
