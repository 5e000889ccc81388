package redis

import (
	"strconv"
	"strings"
)

// All keys live under "cs:<kind>:..." so one Redis can be shared with other
// services and a whole kind can be scanned or flushed at once.
const (
	keyNamespace      = "cs"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
	catalogPrefix     = "catalog"
	lockPrefix        = "lock"
)

// IdempotencyKey returns a namespaced key for idempotency storage.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.buildKey(idempotencyPrefix, scope, id)
}

// RateLimitKey returns a namespaced key for rate limit counters.
func (c *Client) RateLimitKey(scope string) string {
	return c.buildKey(rateLimitPrefix, scope)
}

// AccessSessionKey builds the key holding the refresh token for an access id.
func (c *Client) AccessSessionKey(accessID string) string {
	return c.buildKey(sessionPrefix, "access", accessID)
}

// CatalogProductKey is the cache key for a single catalog product.
func (c *Client) CatalogProductKey(productID int) string {
	return c.buildKey(catalogPrefix, "product", strconv.Itoa(productID))
}

// CatalogListKey is the cache key for a product listing; an empty category means all products.
// Category case is kept because the catalog matches categories case-sensitively.
func (c *Client) CatalogListKey(category string) string {
	return c.buildKey(catalogPrefix, "products", category)
}

// CatalogCategoriesKey is the cache key for the category list.
func (c *Client) CatalogCategoriesKey() string {
	return c.buildKey(catalogPrefix, "categories")
}

// LockKey is the key of a named distributed lock.
func (c *Client) LockKey(name string) string {
	return c.buildKey(lockPrefix, name)
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}
