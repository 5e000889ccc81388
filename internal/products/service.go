package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/cartsync-backend/pkg/catalog"
	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
)

// Service is the read-only product surface exposed to shoppers.
type Service interface {
	List(ctx context.Context, category string) ([]catalog.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id int) (*catalog.Product, error)
}

type service struct {
	catalog catalog.Catalog
}

// NewService wraps the catalog for the HTTP layer.
func NewService(c catalog.Catalog) (Service, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &service{catalog: c}, nil
}

func (s *service) List(ctx context.Context, category string) ([]catalog.Product, error) {
	return s.catalog.ListProducts(ctx, strings.TrimSpace(category))
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *service) Get(ctx context.Context, id int) (*catalog.Product, error) {
	if id < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId must be positive")
	}
	return s.catalog.GetProduct(ctx, id)
}
