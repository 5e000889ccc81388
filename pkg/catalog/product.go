package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the read-only catalog record.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
}

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Catalog is the read surface shared by the HTTP client and its cache.
type Catalog interface {
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListProducts(ctx context.Context, category string) ([]Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}
