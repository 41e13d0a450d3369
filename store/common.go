// Package store provides the persistence backends for the catalog, orders and
// accounts: in-memory, a JSON file, and SQL (sqlite or postgres).
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"minimarket/domain"
)

// timeLayout is fixed width so stored timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type config struct {
	now func() time.Time
}

// Option configures a store
type Option func(*config)

// WithClock overrides the clock used to stamp orders and accounts
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func newConfig(opts []Option) config {
	c := config{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// applyFilter filters and sorts products, keeping catalog order when no sort is requested.
func applyFilter(in []domain.Product, filter domain.ListFilter) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Product, 0, len(in))
	for _, p := range in {
		if filter.Category != "" && filter.Category != "all" && string(p.Category) != filter.Category {
			continue
		}
		if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}

	desc := filter.Order == "desc"
	switch filter.SortBy {
	case "name":
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[i].Name > out[j].Name
			}
			return out[i].Name < out[j].Name
		})
	case "price":
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[i].Price.GreaterThan(out[j].Price)
			}
			return out[i].Price.LessThan(out[j].Price)
		})
	case "stock":
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[i].Stock > out[j].Stock
			}
			return out[i].Stock < out[j].Stock
		})
	}
	return out
}

func validatePayload(p domain.OrderPayload) error {
	if len(p.Lines) == 0 {
		return errors.New("no order items")
	}
	for i, l := range p.Lines {
		if l.ProductID == "" || l.Name == "" {
			return fmt.Errorf("order line %d: product id and name are required", i)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("order line %d: quantity must be at least 1", i)
		}
		if l.Price.IsNegative() {
			return fmt.Errorf("order line %d: price must be non-negative", i)
		}
	}
	if p.Subtotal.IsNegative() || p.Tax.IsNegative() || p.Discount.IsNegative() || p.Total.IsNegative() {
		return errors.New("order totals must be non-negative")
	}
	return nil
}

// copyOrder detaches an order from store-owned memory
func copyOrder(o domain.Order) domain.Order {
	lines := make([]domain.OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	o.Lines = lines
	if o.OwnerID != nil {
		owner := *o.OwnerID
		o.OwnerID = &owner
	}
	return o
}

func sortNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
