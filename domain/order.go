package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCompleted OrderStatus = "completed"
)

// OrderLine is the frozen copy of a cart line taken at submission time
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Totals holds the derived monetary values of a cart or order
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// OrderPayload is what the order pipeline hands to an OrderStore
type OrderPayload struct {
	OwnerID *string     `json:"ownerId"`
	Lines   []OrderLine `json:"lines"`
	Totals
}

// Order is an immutable, persisted checkout record
type Order struct {
	ID      string      `json:"id"`
	OwnerID *string     `json:"ownerId"`
	Lines   []OrderLine `json:"lines"`
	Totals
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// OwnedBy reports whether the order belongs to the identity with the given id.
// Guest orders are owned by nobody.
func (o Order) OwnedBy(identityID string) bool {
	return o.OwnerID != nil && *o.OwnerID == identityID
}

// OrderStore persists orders. GetOrderByID returns nil, nil when the order does not exist.
type OrderStore interface {
	CreateOrder(ctx context.Context, payload OrderPayload) (Order, error)
	ListOrdersForIdentity(ctx context.Context, identityID string) ([]Order, error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
}
