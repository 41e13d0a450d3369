package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"minimarket/cart"
	"minimarket/domain"
	"minimarket/slot"
	"minimarket/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails CreateOrder while down is set
type flakyStore struct {
	*store.InMemoryStore
	down  bool
	calls int
}

func (f *flakyStore) CreateOrder(ctx context.Context, p domain.OrderPayload) (domain.Order, error) {
	f.calls++
	if f.down {
		return domain.Order{}, errors.New("503 service unavailable")
	}
	return f.InMemoryStore.CreateOrder(ctx, p)
}

// leakyStore ignores the identity when listing
type leakyStore struct {
	*store.InMemoryStore
	all []domain.Order
}

func (l *leakyStore) ListOrdersForIdentity(context.Context, string) ([]domain.Order, error) {
	return l.all, nil
}

// countingCart records how often the pipeline reads it
type countingCart struct {
	snap  domain.CartSnapshot
	reads int
}

func (c *countingCart) Snapshot() domain.CartSnapshot {
	c.reads++
	return c.snap
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(id, price string) domain.Product {
	return domain.Product{ID: id, Name: "Item " + id, Category: domain.CategoryVegetables, Price: dec(price), Unit: "lb"}
}

func newCart(t *testing.T, lines ...domain.CartLine) *cart.Store {
	t.Helper()
	ctx := context.Background()
	c := cart.New(ctx, slot.NewMemorySlot())
	for _, l := range lines {
		require.NoError(t, c.AddItem(ctx, l.Product, l.Quantity))
	}
	return c
}

func ann() *domain.Identity {
	return &domain.Identity{ID: "user-ann", Name: "Ann", Email: "ann@example.com"}
}

func TestSubmitEmptyCart(t *testing.T) {
	st := &flakyStore{InMemoryStore: store.NewInMemoryStore()}
	p := NewPipeline(st)

	_, err := p.Submit(context.Background(), newCart(t), ann())
	assert.True(t, domain.IsEmptyCartError(err))
	assert.Zero(t, st.calls, "nothing reaches the store")
}

func TestSubmitTotals(t *testing.T) {
	cases := []struct {
		name                           string
		lines                          []domain.CartLine
		subtotal, tax, discount, total string
	}{
		{
			name:     "below threshold",
			lines:    []domain.CartLine{{Product: item("a", "10"), Quantity: 2}, {Product: item("b", "5"), Quantity: 1}},
			subtotal: "25", tax: "2", discount: "0", total: "27",
		},
		{
			name:     "above threshold",
			lines:    []domain.CartLine{{Product: item("a", "15"), Quantity: 4}},
			subtotal: "60", tax: "4.8", discount: "6", total: "58.8",
		},
		{
			name:     "exactly at threshold",
			lines:    []domain.CartLine{{Product: item("a", "12.5"), Quantity: 4}},
			subtotal: "50", tax: "4", discount: "0", total: "54",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPipeline(store.NewInMemoryStore())
			rcpt, err := p.Submit(context.Background(), newCart(t, tc.lines...), ann())
			require.NoError(t, err)

			o := rcpt.Order
			assert.True(t, o.Subtotal.Equal(dec(tc.subtotal)), "subtotal %s", o.Subtotal)
			assert.True(t, o.Tax.Equal(dec(tc.tax)), "tax %s", o.Tax)
			assert.True(t, o.Discount.Equal(dec(tc.discount)), "discount %s", o.Discount)
			assert.True(t, o.Total.Equal(dec(tc.total)), "total %s", o.Total)
			assert.Equal(t, domain.StatusConfirmed, o.Status)
			assert.Regexp(t, `^ORD-\d+-[0-9a-f]{9}$`, o.ID)
		})
	}
}

func TestSubmitSnapshotsLines(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, domain.CartLine{Product: item("a", "1.25"), Quantity: 3})
	p := NewPipeline(store.NewInMemoryStore())

	rcpt, err := p.Submit(ctx, c, ann())
	require.NoError(t, err)

	require.Len(t, rcpt.Order.Lines, 1)
	line := rcpt.Order.Lines[0]
	assert.Equal(t, "a", line.ProductID)
	assert.Equal(t, "Item a", line.Name)
	assert.True(t, line.Price.Equal(dec("1.25")))
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, "user-ann", *rcpt.Order.OwnerID)

	// later cart changes do not reach the stored order
	require.NoError(t, c.AddItem(ctx, item("a", "9.99"), 1))
	stored, err := p.Get(ctx, rcpt.Order.ID, ann())
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Lines[0].Quantity)
	assert.True(t, stored.Lines[0].Price.Equal(dec("1.25")))
}

func TestSubmitReadsCartOnce(t *testing.T) {
	src := &countingCart{snap: domain.CartSnapshot{
		Lines:   []domain.CartLine{{Product: item("a", "2"), Quantity: 1}},
		Version: 7,
	}}
	rcpt, err := NewPipeline(store.NewInMemoryStore()).Submit(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.reads)
	assert.Equal(t, uint64(7), rcpt.Submitted.Version)
}

func TestSubmitDoesNotTouchCart(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, domain.CartLine{Product: item("a", "2"), Quantity: 2})
	before := c.Snapshot()

	_, err := NewPipeline(store.NewInMemoryStore()).Submit(ctx, c, nil)
	require.NoError(t, err)

	after := c.Snapshot()
	assert.Equal(t, before.Version, after.Version, "clearing is the caller's job")
	assert.Len(t, after.Lines, 1)
}

func TestSubmitFailureLeavesCartAndIsRetriable(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{InMemoryStore: store.NewInMemoryStore(), down: true}
	p := NewPipeline(st)
	c := newCart(t,
		domain.CartLine{Product: item("a", "10"), Quantity: 2},
		domain.CartLine{Product: item("b", "5"), Quantity: 1},
	)
	before := c.Snapshot()

	_, err := p.Submit(ctx, c, ann())
	require.Error(t, err)
	assert.True(t, domain.IsOrderSubmissionFailedError(err))
	assert.Contains(t, err.Error(), "503 service unavailable")

	after := c.Snapshot()
	assert.Equal(t, before, after)

	st.down = false
	rcpt, err := p.Submit(ctx, c, ann())
	require.NoError(t, err)
	assert.True(t, rcpt.Order.Total.Equal(dec("27")))
}

func TestGuestSubmission(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	p := NewPipeline(st)

	rcpt, err := p.Submit(ctx, newCart(t, domain.CartLine{Product: item("a", "1"), Quantity: 1}), nil)
	require.NoError(t, err)
	assert.Nil(t, rcpt.Order.OwnerID)

	stored, err := st.GetOrderByID(ctx, rcpt.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.OwnerID)
}

func TestListScoping(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := start
	st := store.NewInMemoryStore(store.WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}))
	p := NewPipeline(st)
	bob := &domain.Identity{ID: "user-bob"}
	one := domain.CartLine{Product: item("a", "1"), Quantity: 1}

	a1, err := p.Submit(ctx, newCart(t, one), ann())
	require.NoError(t, err)
	_, err = p.Submit(ctx, newCart(t, one), bob)
	require.NoError(t, err)
	_, err = p.Submit(ctx, newCart(t, one), nil)
	require.NoError(t, err)
	a2, err := p.Submit(ctx, newCart(t, one), ann())
	require.NoError(t, err)

	_, err = p.List(ctx, nil)
	assert.True(t, domain.IsUnauthenticatedError(err))

	orders, err := p.List(ctx, ann())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, a2.Order.ID, orders[0].ID, "most recent first")
	assert.Equal(t, a1.Order.ID, orders[1].ID)

	none, err := p.List(ctx, &domain.Identity{ID: "user-nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListFiltersForeignOrders(t *testing.T) {
	owner := "user-ann"
	other := "user-bob"
	now := time.Now()
	st := &leakyStore{InMemoryStore: store.NewInMemoryStore(), all: []domain.Order{
		{ID: "o1", OwnerID: &owner, CreatedAt: now.Add(-time.Hour)},
		{ID: "o2", OwnerID: &other, CreatedAt: now},
		{ID: "o3", CreatedAt: now},
		{ID: "o4", OwnerID: &owner, CreatedAt: now},
	}}

	orders, err := NewPipeline(st).List(context.Background(), ann())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o4", orders[0].ID)
	assert.Equal(t, "o1", orders[1].ID)
}

func TestGetOwnership(t *testing.T) {
	ctx := context.Background()
	p := NewPipeline(store.NewInMemoryStore())
	one := domain.CartLine{Product: item("a", "1"), Quantity: 1}

	mine, err := p.Submit(ctx, newCart(t, one), ann())
	require.NoError(t, err)
	guest, err := p.Submit(ctx, newCart(t, one), nil)
	require.NoError(t, err)

	got, err := p.Get(ctx, mine.Order.ID, ann())
	require.NoError(t, err)
	assert.Equal(t, mine.Order.ID, got.ID)

	_, err = p.Get(ctx, mine.Order.ID, &domain.Identity{ID: "user-bob"})
	assert.True(t, domain.IsNotFoundError(err), "someone else's order looks missing")

	_, err = p.Get(ctx, guest.Order.ID, ann())
	assert.True(t, domain.IsNotFoundError(err))

	_, err = p.Get(ctx, "ORD-0-000000000", ann())
	assert.True(t, domain.IsNotFoundError(err))

	_, err = p.Get(ctx, mine.Order.ID, nil)
	assert.True(t, domain.IsUnauthenticatedError(err))
}
