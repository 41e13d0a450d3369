// Package cart holds the shopper's cart and keeps a durable copy of it in a slot.
package cart

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"minimarket/domain"
	"minimarket/pricing"
	"minimarket/slot"

	"github.com/shopspring/decimal"
)

// Store is the cart of one session. Lines keep insertion order and there is
// at most one line per product id, always with quantity >= 1.
//
// Stock is not enforced here; a cart may hold more than a product's stock.
type Store struct {
	mu      sync.Mutex
	lines   []domain.CartLine
	version uint64
	slot    slot.Slot
	logger  *slog.Logger
}

type Option func(*Store)

// WithLogger sets the logger used for swallowed slot failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a cart backed by sl and restores whatever the slot holds. A
// snapshot that fails validation is discarded and the cart starts empty.
func New(ctx context.Context, sl slot.Slot, opts ...Option) *Store {
	s := &Store{slot: sl, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) {
	if s.slot == nil {
		return
	}
	data, ok, err := s.slot.Load(ctx)
	if err != nil {
		s.logger.Warn("cart restore failed", "slot", "cart", "error", err)
		return
	}
	if !ok {
		return
	}
	lines, err := Decode(data)
	if err != nil {
		s.logger.Warn("corrupted cart discarded", "slot", "cart", "error", err)
		if err := s.slot.Clear(ctx); err != nil {
			s.logger.Warn("cart slot clear failed", "slot", "cart", "error", err)
		}
		return
	}
	s.lines = lines
}

// AddItem merges quantity into the product's line, appending a new line if
// the product is not in the cart yet.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		return domain.NewInvalidAmountError("quantity", strconv.Itoa(quantity))
	}
	if product.ID == "" {
		return domain.NewInvalidProductError("id", "cannot be empty", product.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(product.ID); i >= 0 {
		s.lines[i].Quantity += quantity
	} else {
		s.lines = append(s.lines, domain.CartLine{Product: product, Quantity: quantity})
	}
	s.changed(ctx)
	s.logger.Debug("cart item added", "product_id", product.ID, "quantity", quantity)
	return nil
}

// UpdateQuantity overwrites a line's quantity. A quantity of zero or less
// removes the line. Unknown products are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.lines[i].Quantity = quantity
	s.changed(ctx)
}

// RemoveItem deletes the product's line if present.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.changed(ctx)
}

// Clear empties the cart and drops the durable copy.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) {
	s.lines = nil
	s.version++
	if s.slot == nil {
		return
	}
	if err := s.slot.Clear(ctx); err != nil {
		s.logger.Warn("cart slot clear failed", "slot", "cart", "error", err)
	}
}

// Settle removes what was ordered from the cart. If nothing changed since snap
// was taken the cart is cleared; otherwise only the submitted quantities are
// deducted so items added meanwhile survive.
func (s *Store) Settle(ctx context.Context, snap domain.CartSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == snap.Version {
		s.clearLocked(ctx)
		return
	}
	for _, submitted := range snap.Lines {
		i := s.indexOf(submitted.Product.ID)
		if i < 0 {
			continue
		}
		s.lines[i].Quantity -= submitted.Quantity
		if s.lines[i].Quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		}
	}
	if len(s.lines) == 0 {
		s.clearLocked(ctx)
		return
	}
	s.changed(ctx)
}

// ItemCount is the sum of all line quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal prices the current lines.
func (s *Store) Subtotal() (decimal.Decimal, error) {
	return pricing.Subtotal(pricing.LinesFromCart(s.Lines()))
}

// Totals prices the current lines for display. Checkout recomputes its own.
func (s *Store) Totals() (domain.Totals, error) {
	return pricing.Compute(pricing.LinesFromCart(s.Lines()))
}

// Lines returns a copy of the current lines in display order.
func (s *Store) Lines() []domain.CartLine {
	return s.Snapshot().Lines
}

// Snapshot copies the lines and version under a single lock.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.CartSnapshot{Lines: lines, Version: s.version}
}

func (s *Store) indexOf(productID string) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// changed bumps the version and writes the durable copy. Must hold mu.
func (s *Store) changed(ctx context.Context) {
	s.version++
	if s.slot == nil {
		return
	}
	data, err := Encode(s.lines)
	if err != nil {
		s.logger.Warn("cart encode failed", "slot", "cart", "error", err)
		return
	}
	if err := s.slot.Save(ctx, data); err != nil {
		s.logger.Warn("cart save failed", "slot", "cart", "error", err)
	}
}
