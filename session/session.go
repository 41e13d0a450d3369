// Package session ties one shopper's cart, identity and checkout together.
// A Session restores the cart from its durable slot when it is created and
// clears it again on logout.
package session

import (
	"context"
	"errors"
	"log/slog"

	"minimarket/cart"
	"minimarket/catalog"
	"minimarket/domain"
	"minimarket/identity"
	"minimarket/order"
	"minimarket/slot"
)

// Deps are the collaborators a Session is built from
type Deps struct {
	CartSlot slot.Slot
	Catalog  *catalog.Catalog
	Identity *identity.Provider
	Orders   *order.Pipeline
	Logger   *slog.Logger
}

type Session struct {
	cart     *cart.Store
	catalog  *catalog.Catalog
	identity *identity.Provider
	orders   *order.Pipeline
	logger   *slog.Logger
}

func New(ctx context.Context, d Deps) (*Session, error) {
	if d.Catalog == nil || d.Identity == nil || d.Orders == nil {
		return nil, errors.New("session needs a catalog, identity provider and order pipeline")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cartSlot := d.CartSlot
	if cartSlot == nil {
		cartSlot = slot.NewMemorySlot()
	}
	return &Session{
		cart:     cart.New(ctx, cartSlot, cart.WithLogger(logger)),
		catalog:  d.Catalog,
		identity: d.Identity,
		orders:   d.Orders,
		logger:   logger,
	}, nil
}

func (s *Session) Cart() *cart.Store {
	return s.cart
}

func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

// Identity is the signed-in shopper, or nil for a guest.
func (s *Session) Identity(ctx context.Context) *domain.Identity {
	return s.identity.Current(ctx)
}

// AddToCart looks the product up in the catalog and adds quantity of it.
func (s *Session) AddToCart(ctx context.Context, productID string, quantity int) (domain.Product, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.cart.AddItem(ctx, p, quantity); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Checkout submits the cart as the current identity (or as a guest) and, once
// the order is stored, settles the cart against what was submitted.
func (s *Session) Checkout(ctx context.Context) (domain.Order, error) {
	rcpt, err := s.orders.Submit(ctx, s.cart, s.identity.Current(ctx))
	if err != nil {
		return domain.Order{}, err
	}
	s.cart.Settle(ctx, rcpt.Submitted)
	return rcpt.Order, nil
}

// Orders lists the signed-in shopper's orders, most recent first.
func (s *Session) Orders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx, s.identity.Current(ctx))
}

// Order returns one of the signed-in shopper's orders.
func (s *Session) Order(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.Get(ctx, id, s.identity.Current(ctx))
}

func (s *Session) Signup(ctx context.Context, name, email, password string) (domain.Identity, error) {
	return s.identity.Signup(ctx, name, email, password)
}

func (s *Session) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	return s.identity.Login(ctx, email, password)
}

// Logout signs out and empties the cart.
func (s *Session) Logout(ctx context.Context) {
	s.identity.Logout(ctx)
	s.cart.Clear(ctx)
	s.logger.Debug("session ended")
}
