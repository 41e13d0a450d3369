// Package catalog is the boundary between the storefront and the product
// catalog: it loads and browses products, and imports or exports catalog files
// after checking them against the catalog schema.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"minimarket/domain"
)

//go:embed seed.json
var seedCatalog []byte

// Catalog reads and maintains products in a CatalogStore
type Catalog struct {
	store  domain.CatalogStore
	logger *slog.Logger
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the logger. nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(store domain.CatalogStore, opts ...Option) *Catalog {
	c := &Catalog{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the whole catalog in catalog order.
func (c *Catalog) Load(ctx context.Context) ([]domain.Product, error) {
	return c.Browse(ctx, domain.ListFilter{})
}

// Browse returns the products matching filter. A store response containing a
// product that lacks an id, name, valid category or non-negative price is
// rejected as a whole.
func (c *Catalog) Browse(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	products, err := c.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := check(products); err != nil {
		c.logger.Warn("catalog rejected", "error", err)
		return nil, err
	}
	return products, nil
}

// Product looks up a single product.
func (c *Catalog) Product(ctx context.Context, id string) (domain.Product, error) {
	return c.store.Get(ctx, id)
}

// Create adds a product. The unit defaults to lb.
func (c *Catalog) Create(ctx context.Context, p domain.Product) error {
	return c.store.Create(ctx, p.WithDefaults())
}

func (c *Catalog) Update(ctx context.Context, id string, p domain.Product) error {
	return c.store.Update(ctx, id, p.WithDefaults())
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

// Import decodes a catalog file and bulk-imports it. Nothing is imported when
// the document is malformed; otherwise the store reports per-product failures
// such as duplicates. It returns the number of products offered to the store.
func (c *Catalog) Import(ctx context.Context, data []byte, format Format) (int, error) {
	products, err := Decode(data, format)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	err = c.store.BulkImport(ctx, products)
	c.logger.Info("catalog imported",
		"products", len(products),
		"failed", err != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return len(products), err
}

// Export encodes the products matching filter.
func (c *Catalog) Export(ctx context.Context, filter domain.ListFilter, format Format) ([]byte, error) {
	products, err := c.Browse(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Encode(products, format)
}

// Seed imports the built-in starter catalog.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	return c.Import(ctx, seedCatalog, FormatJSON)
}
