package cache

import (
	"strings"
	"time"

	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
)

const defaultCatalogTTL = time.Minute

// CatalogCache stores assembled catalog listings keyed by category and
// role. The catalog changes rarely, so a short TTL is enough to take
// the read load off the hot path.
type CatalogCache struct {
	responses Cache[string, *catalogdomain.CatalogResponse]
	ttl       time.Duration
}

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{
		responses: NewTTLCache[string, *catalogdomain.CatalogResponse](),
		ttl:       defaultCatalogTTL,
	}
}

func (c *CatalogCache) Get(category, role string) (*catalogdomain.CatalogResponse, bool) {
	if c == nil {
		return nil, false
	}
	return c.responses.Get(cacheKey(category, role))
}

func (c *CatalogCache) Set(category, role string, res *catalogdomain.CatalogResponse) {
	if c == nil || res == nil {
		return
	}
	c.responses.Set(cacheKey(category, role), res, c.ttl)
}

// cacheKey keeps empty components so a category-only listing and a
// role-only listing never share an entry.
func cacheKey(category, role string) string {
	return strings.ToLower(strings.TrimSpace(category)) + "|" + strings.ToLower(strings.TrimSpace(role))
}
