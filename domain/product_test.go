package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateProduct(t *testing.T) {
	valid := Product{
		ID:       "apple-fuji",
		Name:     "Fuji Apple",
		Category: CategoryFruits,
		Price:    decimal.RequireFromString("2.49"),
		Stock:    40,
		Unit:     "lb",
	}

	tests := []struct {
		name     string
		mutate   func(p *Product)
		errField string
	}{
		{name: "valid product", mutate: func(p *Product) {}},
		{name: "zero stock is fine", mutate: func(p *Product) { p.Stock = 0 }},
		{name: "empty id", mutate: func(p *Product) { p.ID = "" }, errField: "id"},
		{name: "empty name", mutate: func(p *Product) { p.Name = "" }, errField: "name"},
		{name: "unknown category", mutate: func(p *Product) { p.Category = "dairy" }, errField: "category"},
		{name: "negative price", mutate: func(p *Product) { p.Price = decimal.NewFromInt(-1) }, errField: "price"},
		{name: "negative stock", mutate: func(p *Product) { p.Stock = -5 }, errField: "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := ValidateProduct(p)

			if tt.errField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ipe, ok := err.(*InvalidProductError)
			if !ok {
				t.Fatalf("expected InvalidProductError, got %T", err)
			}
			if ipe.Field != tt.errField {
				t.Fatalf("expected error field %q, got %q", tt.errField, ipe.Field)
			}
		})
	}
}

func TestProductDefaults(t *testing.T) {
	p := Product{ID: "kale", Name: "Kale", Category: CategoryVegetables}.WithDefaults()
	if p.Unit != DefaultUnit {
		t.Fatalf("expected unit %q, got %q", DefaultUnit, p.Unit)
	}

	bunch := Product{ID: "kale", Unit: "bunch"}.WithDefaults()
	if bunch.Unit != "bunch" {
		t.Fatalf("explicit unit overwritten: %q", bunch.Unit)
	}
}

func TestProductPriceIsAJSONNumber(t *testing.T) {
	b, err := json.Marshal(Product{ID: "a", Price: decimal.RequireFromString("0.10")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := raw["price"].(float64); !ok {
		t.Fatalf("expected numeric price, got %T in %s", raw["price"], b)
	}
}

func TestOrderOwnedBy(t *testing.T) {
	owner := "user-1"
	owned := Order{ID: "ORD-1", OwnerID: &owner}
	guest := Order{ID: "ORD-2"}

	if !owned.OwnedBy("user-1") {
		t.Error("order should be owned by user-1")
	}
	if owned.OwnedBy("user-2") {
		t.Error("order should not be owned by user-2")
	}
	if guest.OwnedBy("") {
		t.Error("guest orders are owned by nobody")
	}
}

func TestListFilterZeroValue(t *testing.T) {
	var f ListFilter
	if f.Category != "" || f.Search != "" || f.MinPrice != nil || f.MaxPrice != nil {
		t.Fatalf("expected empty filter, got %+v", f)
	}
}
