package search

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/utils/logging"
)

const (
	cacheSize = 128
	cacheTTL  = 5 * time.Minute
)

// Cascade runs the ranked retrieval tiers until the first non-empty
// result. Tier failures are invisible degradations: every error is logged
// and swallowed, and an exhausted cascade returns empty text.
type Cascade struct {
	providers []interfaces.SearchProvider
	cache     *expirable.LRU[string, string]
}

// NewCascade creates a cascade over the ranked providers
func NewCascade(providers ...interfaces.SearchProvider) *Cascade {
	return &Cascade{
		providers: providers,
		cache:     expirable.NewLRU[string, string](cacheSize, nil, cacheTTL),
	}
}

// Run returns the first non-empty tier result for the query, or "" when
// every tier comes back empty or fails.
func (c *Cascade) Run(ctx context.Context, query string) string {
	if cached, ok := c.cache.Get(query); ok {
		return cached
	}

	logger := logging.From(ctx)
	for _, p := range c.providers {
		result, err := p.Search(ctx, query)
		if err != nil {
			logger.Warn("search tier failed", "tier", p.Name(), "error", err.Error())
			continue
		}
		if result == "" {
			continue
		}
		c.cache.Add(query, result)
		return result
	}
	return ""
}
