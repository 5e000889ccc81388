package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/cartsync-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
)

const (
	defaultBaseURL          = "https://fakestoreapi.com"
	defaultTimeout          = 10 * time.Second
	errorBodyReadLimit      = 1024
	responseBodyLimit int64 = 4 << 20
)

// Client talks to the upstream catalog over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.CatalogMetrics
}

var _ Catalog = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured catalog base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithMetrics records upstream latency and outcomes.
func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the catalog client from config.
func NewClient(cfg config.CatalogConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
	WithBaseURL(cfg.BaseURL)(client)
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// GetProduct fetches one product. Unknown ids return NOT_FOUND.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	if id < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	var product *Product
	err := c.get(ctx, "get_product", "/products/"+strconv.Itoa(id), &product)
	if err != nil {
		return nil, err
	}
	// the upstream answers unknown ids with 200 and an empty or null body
	if product == nil || product.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// ListProducts returns every product, or only those in category when it is set.
func (c *Client) ListProducts(ctx context.Context, category string) ([]Product, error) {
	path := "/products"
	op := "list_products"
	if category = strings.TrimSpace(category); category != "" {
		path = "/products/category/" + url.PathEscape(category)
		op = "list_category"
	}

	var products []Product
	if err := c.get(ctx, op, path, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// ListCategories returns the catalog category names.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.get(ctx, "list_categories", "/products/categories", &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRequest(op, time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "read catalog response")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode catalog response")
	}
	return nil
}
