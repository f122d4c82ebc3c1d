package catalog

import (
	"context"
	"errors"

	"github.com/fjod/rocketcart/internal/domain"
)

var (
	// ErrFetchFailed wraps every failure to resolve stock or product data.
	ErrFetchFailed = errors.New("catalog fetch failed")
	ErrNotFound    = errors.New("catalog record not found")
)

// Catalog is the read-only stock and product lookup the cart depends on.
type Catalog interface {
	Stock(ctx context.Context, productID int64) (domain.StockRecord, error)
	Product(ctx context.Context, productID int64) (domain.Product, error)
}
