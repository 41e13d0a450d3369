// Package order turns a cart into a persisted order and reads back order history.
package order

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"minimarket/domain"
	"minimarket/pricing"
)

// CartSource is the cart as the pipeline sees it: one atomic read.
type CartSource interface {
	Snapshot() domain.CartSnapshot
}

// Receipt is a successful submission: the stored order and the exact cart
// snapshot it was built from, so the caller can settle the cart.
type Receipt struct {
	Order     domain.Order
	Submitted domain.CartSnapshot
}

// Pipeline submits and looks up orders
type Pipeline struct {
	store  domain.OrderStore
	logger *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPipeline(store domain.OrderStore, opts ...Option) *Pipeline {
	p := &Pipeline{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit prices the cart's current lines and stores them as an order owned by
// ident (nil for a guest). The cart is never modified here; on success the
// caller settles it against Receipt.Submitted.
func (p *Pipeline) Submit(ctx context.Context, cart CartSource, ident *domain.Identity) (Receipt, error) {
	snap := cart.Snapshot()
	if snap.Empty() {
		return Receipt{}, domain.NewEmptyCartError()
	}

	totals, err := pricing.Compute(pricing.LinesFromCart(snap.Lines))
	if err != nil {
		return Receipt{}, err
	}

	lines := make([]domain.OrderLine, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
		})
	}

	payload := domain.OrderPayload{Lines: lines, Totals: totals}
	if ident != nil {
		owner := ident.ID
		payload.OwnerID = &owner
	}

	start := time.Now()
	o, err := p.store.CreateOrder(ctx, payload)
	if err != nil {
		p.logger.Error("order submission failed", "lines", len(lines), "error", err)
		return Receipt{}, domain.NewOrderSubmissionFailedError(err)
	}
	p.logger.Info("order submitted",
		"order_id", o.ID,
		"identity_id", ownerOf(payload),
		"total", o.Total.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Receipt{Order: o, Submitted: snap}, nil
}

// List returns the orders owned by ident, most recent first.
func (p *Pipeline) List(ctx context.Context, ident *domain.Identity) ([]domain.Order, error) {
	if ident == nil {
		return nil, domain.NewUnauthenticatedError("listing orders")
	}
	orders, err := p.store.ListOrdersForIdentity(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		// the store scopes already; this keeps a misbehaving one from leaking
		if o.OwnedBy(ident.ID) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns the order with id if ident owns it. Missing orders and orders
// owned by someone else are both NotFound.
func (p *Pipeline) Get(ctx context.Context, id string, ident *domain.Identity) (domain.Order, error) {
	if ident == nil {
		return domain.Order{}, domain.NewUnauthenticatedError("viewing an order")
	}
	o, err := p.store.GetOrderByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o == nil || !o.OwnedBy(ident.ID) {
		return domain.Order{}, domain.NewNotFoundError("order", id)
	}
	return *o, nil
}

func ownerOf(p domain.OrderPayload) string {
	if p.OwnerID == nil {
		return "guest"
	}
	return *p.OwnerID
}
