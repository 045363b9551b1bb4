package news

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/cache"
)

// CachedSearcher memoizes successful searches. Cache failures never fail a
// search.
type CachedSearcher struct {
	next  provider.NewsSearcher
	store cache.Store
	ttl   time.Duration
}

func NewCachedSearcher(next provider.NewsSearcher, store cache.Store, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{next: next, store: store, ttl: ttl}
}

func (c *CachedSearcher) Search(ctx context.Context, query string, window time.Duration, maxResults int) ([]model.NewsArticle, error) {
	key := fmt.Sprintf("news:%s:%d:%d", strings.ToLower(strings.TrimSpace(query)), int(window.Hours()), maxResults)

	var cached []model.NewsArticle
	hit, err := c.store.Get(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "news cache read failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	articles, err := c.next.Search(ctx, query, window, maxResults)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, articles, c.ttl); err != nil {
		slog.WarnContext(ctx, "news cache write failed", "error", err)
	}
	return articles, nil
}

func (c *CachedSearcher) Source() string {
	return c.next.Source()
}
