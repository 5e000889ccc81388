package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
	redisclient "github.com/angelmondragon/cartsync-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *memoryCache) CatalogProductKey(id int) string { return fmt.Sprintf("p:%d", id) }
func (m *memoryCache) CatalogListKey(c string) string  { return "l:" + c }
func (m *memoryCache) CatalogCategoriesKey() string    { return "c" }

type countingCatalog struct {
	calls    int
	products map[int]Product
	err      error
}

func (c *countingCatalog) GetProduct(_ context.Context, id int) (*Product, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func (c *countingCatalog) ListProducts(_ context.Context, _ string) ([]Product, error) {
	c.calls++
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	return out, c.err
}

func (c *countingCatalog) ListCategories(context.Context) ([]string, error) {
	c.calls++
	return []string{"electronics"}, c.err
}

func TestCachedCatalogReadThrough(t *testing.T) {
	upstream := &countingCatalog{products: map[int]Product{
		3: {ID: 3, Title: "Cotton Jacket", Price: decimal.RequireFromString("55.99")},
	}}
	m := metrics.NewCatalogMetrics(prometheus.NewRegistry())
	cached := NewCachedCatalog(upstream, newMemoryCache(), time.Minute, nil, m)

	first, err := cached.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	second, err := cached.GetProduct(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, first.Title, second.Title)
	assert.True(t, second.Price.Equal(decimal.RequireFromString("55.99")))

	_, err = cached.ListCategories(context.Background())
	require.NoError(t, err)
	_, err = cached.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)

	_, err = cached.ListProducts(context.Background(), "")
	require.NoError(t, err)
	_, err = cached.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, upstream.calls)
}

func TestCachedCatalogDoesNotCacheErrors(t *testing.T) {
	upstream := &countingCatalog{products: map[int]Product{}}
	cached := NewCachedCatalog(upstream, newMemoryCache(), time.Minute, nil, nil)

	_, err := cached.GetProduct(context.Background(), 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = cached.GetProduct(context.Background(), 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 2, upstream.calls)
}

func TestCachedCatalogFallsBackWhenCacheFails(t *testing.T) {
	upstream := &countingCatalog{products: map[int]Product{1: {ID: 1, Title: "Backpack"}}}
	store := newMemoryCache()
	store.getErr = errors.New("connection refused")
	cached := NewCachedCatalog(upstream, store, time.Minute, nil, nil)

	product, err := cached.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Backpack", product.Title)
}

// redisKeyedCache stores in memory but names entries with the production key builder.
type redisKeyedCache struct {
	*memoryCache
	keys *redisclient.Client
}

func (c redisKeyedCache) CatalogProductKey(id int) string  { return c.keys.CatalogProductKey(id) }
func (c redisKeyedCache) CatalogListKey(cat string) string { return c.keys.CatalogListKey(cat) }
func (c redisKeyedCache) CatalogCategoriesKey() string     { return c.keys.CatalogCategoriesKey() }

func TestCachedCatalogKeepsCategoryCase(t *testing.T) {
	upstream := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() == "/products/category/electronics" {
			_, _ = w.Write([]byte("[" + productJSON + "]"))
			return
		}
		_, _ = w.Write([]byte("[]"))
	})
	store := redisKeyedCache{memoryCache: newMemoryCache(), keys: &redisclient.Client{}}
	cached := NewCachedCatalog(upstream, store, time.Minute, nil, nil)

	wrongCase, err := cached.ListProducts(context.Background(), "Electronics")
	require.NoError(t, err)
	assert.Empty(t, wrongCase)

	products, err := cached.ListProducts(context.Background(), "electronics")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 5, products[0].ID)

	again, err := cached.ListProducts(context.Background(), "electronics")
	require.NoError(t, err)
	assert.Len(t, again, 1)
	assert.Len(t, store.data, 2)
}
