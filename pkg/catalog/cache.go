package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/cartsync-backend/pkg/logger"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
	redisclient "github.com/angelmondragon/cartsync-backend/pkg/redis"
)

// CacheStore is the redis surface used by the read-through cache.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogProductKey(productID int) string
	CatalogListKey(category string) string
	CatalogCategoriesKey() string
}

var _ CacheStore = (*redisclient.Client)(nil)

// CachedCatalog is a read-through redis cache in front of another Catalog.
// Cache failures degrade to upstream calls; errors are never cached.
type CachedCatalog struct {
	next    Catalog
	store   CacheStore
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.CatalogMetrics
}

var _ Catalog = (*CachedCatalog)(nil)

func NewCachedCatalog(next Catalog, store CacheStore, ttl time.Duration, logg *logger.Logger, m *metrics.CatalogMetrics) *CachedCatalog {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedCatalog{next: next, store: store, ttl: ttl, logg: logg, metrics: m}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id int) (*Product, error) {
	key := c.store.CatalogProductKey(id)
	var cached Product
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	product, err := c.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, product)
	return product, nil
}

func (c *CachedCatalog) ListProducts(ctx context.Context, category string) ([]Product, error) {
	key := c.store.CatalogListKey(category)
	var cached []Product
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	products, err := c.next.ListProducts(ctx, category)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, products)
	return products, nil
}

func (c *CachedCatalog) ListCategories(ctx context.Context) ([]string, error) {
	key := c.store.CatalogCategoriesKey()
	var cached []string
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	categories, err := c.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, categories)
	return categories, nil
}

func (c *CachedCatalog) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
	case redisclient.IsMiss(err):
		c.metrics.IncCache("miss")
		return false
	default:
		c.metrics.IncCache("error")
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "catalog cache read failed: "+err.Error())
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.metrics.IncCache("error")
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "catalog cache entry undecodable")
		return false
	}
	c.metrics.IncCache("hit")
	return true
}

func (c *CachedCatalog) fill(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "catalog cache write failed: "+err.Error())
	}
}
