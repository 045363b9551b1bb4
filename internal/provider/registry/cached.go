package registry

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/model"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/provider/cache"
)

// Cached memoizes successful lookups keyed by country and number (or name).
type Cached struct {
	next  provider.RegistryLookup
	store cache.Store
	ttl   time.Duration
}

func NewCached(next provider.RegistryLookup, store cache.Store, ttl time.Duration) *Cached {
	return &Cached{next: next, store: store, ttl: ttl}
}

func (c *Cached) Lookup(ctx context.Context, q provider.RegistryQuery) (*model.RegistryRecord, error) {
	ident := q.RegistrationNumber
	if ident == "" {
		ident = q.Name
	}
	key := "registry:" + strings.ToLower(strings.TrimSpace(q.Country)) + ":" + strings.ToLower(strings.TrimSpace(ident))

	var cached model.RegistryRecord
	hit, err := c.store.Get(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "registry cache read failed", "error", err)
	}
	if hit {
		return &cached, nil
	}

	rec, err := c.next.Lookup(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, rec, c.ttl); err != nil {
		slog.WarnContext(ctx, "registry cache write failed", "error", err)
	}
	return rec, nil
}

func (c *Cached) Source(country string) string {
	return c.next.Source(country)
}

// Supports forwards to the wrapped lookup when it is a CountryVerifier.
func (c *Cached) Supports(country string) bool {
	if v, ok := c.next.(provider.CountryVerifier); ok {
		return v.Supports(country)
	}
	return false
}
