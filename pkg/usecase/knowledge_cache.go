package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/service/genai"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultKnowledgeCacheTTL is how long the article list given to the generative
	// backend is reused
	DefaultKnowledgeCacheTTL = 5 * time.Minute

	maxContextArticles = 200
)

type contextKey struct {
	locale   types.Locale
	platform types.Platform
}

func (k contextKey) String() string {
	return string(k.locale) + "/" + string(k.platform)
}

type cachedContext struct {
	articles   []genai.ArticleRef
	expiresAt  time.Time
	generation uint64
}

// knowledgeContextCache holds the article list per locale and platform. invalidate
// drops every entry, including loads that were in flight when it was called.
type knowledgeContextCache struct {
	ttl        time.Duration
	load       func(ctx context.Context, key contextKey) ([]genai.ArticleRef, error)
	cache      sync.Map
	group      singleflight.Group
	generation atomic.Uint64
}

func newKnowledgeContextCache(ttl time.Duration, load func(ctx context.Context, key contextKey) ([]genai.ArticleRef, error)) *knowledgeContextCache {
	return &knowledgeContextCache{
		ttl:  ttl,
		load: load,
	}
}

func (c *knowledgeContextCache) get(ctx context.Context, key contextKey) ([]genai.ArticleRef, error) {
	if c.ttl <= 0 {
		return c.load(ctx, key)
	}

	gen := c.generation.Load()
	if val, ok := c.cache.Load(key); ok {
		cached := val.(*cachedContext)
		if cached.generation == gen && time.Now().Before(cached.expiresAt) {
			return cached.articles, nil
		}
		c.cache.Delete(key)
	}

	// Concurrent misses for the same key share one load
	val, err, _ := c.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		articles, err := c.load(ctx, key)
		if err != nil {
			return nil, err
		}
		c.cache.Store(key, &cachedContext{
			articles:   articles,
			expiresAt:  time.Now().Add(c.ttl),
			generation: gen,
		})
		return articles, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]genai.ArticleRef), nil
}

func (c *knowledgeContextCache) invalidate() {
	c.generation.Add(1)
	c.cache.Range(func(key, _ any) bool {
		c.cache.Delete(key)
		return true
	})
}
