// Package domain defines core business types and interfaces.
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers so exported catalogs re-import cleanly
	decimal.MarshalJSONWithoutQuotes = true
}

// Category is the catalog section a product belongs to
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
)

// Valid reports whether c is one of the known catalog categories
func (c Category) Valid() bool {
	return c == CategoryFruits || c == CategoryVegetables
}

// DefaultUnit is the unit label used when a product does not name one
const DefaultUnit = "lb"

// Product represents a catalog product
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description,omitempty"`
	Stock       int             `json:"stock"`
	Unit        string          `json:"unit"`
}

// WithDefaults returns a copy of p with the unit label filled in
func (p Product) WithDefaults() Product {
	if p.Unit == "" {
		p.Unit = DefaultUnit
	}
	return p
}

// ListFilter allows filtering and sorting results from List
type ListFilter struct {
	Category string // "" or "all" for every category
	Search   string // case-insensitive match on name or description
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   string // "name", "price", "stock"
	Order    string // "asc" or "desc"
}

// ValidateProduct checks the fields a catalog product must carry.
func ValidateProduct(p Product) error {
	if p.ID == "" {
		return NewInvalidProductError("id", "cannot be empty", p.ID)
	}
	if p.Name == "" {
		return NewInvalidProductError("name", "cannot be empty", p.Name)
	}
	if !p.Category.Valid() {
		return NewInvalidProductError("category", "must be fruits or vegetables", p.Category)
	}
	if p.Price.IsNegative() {
		return NewInvalidProductError("price", "must be non-negative", p.Price)
	}
	if p.Stock < 0 {
		return NewInvalidProductError("stock", "must be non-negative", p.Stock)
	}
	return nil
}

// CatalogStore defines the storage interface for catalog products
type CatalogStore interface {
	Create(ctx context.Context, product Product) error
	Get(ctx context.Context, id string) (Product, error)
	Update(ctx context.Context, id string, product Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	BulkImport(ctx context.Context, products []Product) error
}
