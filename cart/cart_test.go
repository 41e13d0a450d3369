package cart

import (
	"context"
	"errors"
	"testing"

	"minimarket/domain"
	"minimarket/slot"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id, price string) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Category: domain.CategoryFruits, Price: decimal.RequireFromString(price), Stock: 3, Unit: "lb"}
}

// brokenSlot fails every call
type brokenSlot struct{}

func (brokenSlot) Save(context.Context, []byte) error { return errors.New("disk full") }
func (brokenSlot) Load(context.Context) ([]byte, bool, error) {
	return nil, false, errors.New("disk gone")
}
func (brokenSlot) Clear(context.Context) error { return errors.New("disk gone") }

func TestAddItemMergesQuantities(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())

	require.NoError(t, c.AddItem(ctx, product("p", "1.00"), 2))
	require.NoError(t, c.AddItem(ctx, product("p", "1.00"), 3))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, c.ItemCount())
}

func TestAddItemKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, c.AddItem(ctx, product(id, "1"), 1))
	}
	require.NoError(t, c.AddItem(ctx, product("a", "1"), 1))

	var ids []string
	for _, l := range c.Lines() {
		ids = append(ids, l.Product.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())

	assert.True(t, domain.IsInvalidAmountError(c.AddItem(ctx, product("p", "1"), 0)))
	assert.True(t, domain.IsInvalidAmountError(c.AddItem(ctx, product("p", "1"), -2)))
	assert.True(t, domain.IsInvalidProductError(c.AddItem(ctx, domain.Product{}, 1)))
	assert.Empty(t, c.Lines())
}

func TestAddItemDoesNotClampToStock(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())
	require.NoError(t, c.AddItem(ctx, product("p", "1"), 10))
	assert.Equal(t, 10, c.ItemCount(), "stock of 3 is not enforced by the cart")
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())
	require.NoError(t, c.AddItem(ctx, product("p", "1"), 2))

	c.UpdateQuantity(ctx, "p", 7)
	assert.Equal(t, 7, c.Lines()[0].Quantity, "update overwrites rather than merges")

	c.UpdateQuantity(ctx, "missing", 4)
	assert.Len(t, c.Lines(), 1, "unknown products are ignored")
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()
	a := New(ctx, slot.NewMemorySlot())
	b := New(ctx, slot.NewMemorySlot())
	for _, c := range []*Store{a, b} {
		require.NoError(t, c.AddItem(ctx, product("p", "1"), 2))
		require.NoError(t, c.AddItem(ctx, product("q", "2"), 1))
	}

	a.UpdateQuantity(ctx, "p", 0)
	b.RemoveItem(ctx, "p")

	assert.Equal(t, a.Lines(), b.Lines())
	require.Len(t, a.Lines(), 1)
	assert.Equal(t, "q", a.Lines()[0].Product.ID)

	a.UpdateQuantity(ctx, "q", -1)
	assert.Empty(t, a.Lines())
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())
	require.NoError(t, c.AddItem(ctx, product("p", "1"), 1))
	before := c.Snapshot()

	c.RemoveItem(ctx, "nope")

	after := c.Snapshot()
	assert.Equal(t, before.Lines, after.Lines)
	assert.Equal(t, before.Version, after.Version)
}

func TestSubtotalAndTotals(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())
	require.NoError(t, c.AddItem(ctx, product("a", "10"), 2))
	require.NoError(t, c.AddItem(ctx, product("b", "5"), 1))

	sub, err := c.Subtotal()
	require.NoError(t, err)
	assert.True(t, sub.Equal(decimal.NewFromInt(25)))

	totals, err := c.Totals()
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(27)), "got %s", totals.Total)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	sl := slot.NewMemorySlot()

	c := New(ctx, sl)
	require.NoError(t, c.AddItem(ctx, product("b", "1.10"), 2))
	require.NoError(t, c.AddItem(ctx, product("a", "3.05"), 1))
	c.UpdateQuantity(ctx, "a", 4)

	restored := New(ctx, sl)
	want, got := c.Lines(), restored.Lines()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Product.ID, got[i].Product.ID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].Product.Price.Equal(got[i].Product.Price))
	}
}

func TestClearDropsDurableCopy(t *testing.T) {
	ctx := context.Background()
	sl := slot.NewMemorySlot()
	c := New(ctx, sl)
	require.NoError(t, c.AddItem(ctx, product("p", "1"), 1))

	c.Clear(ctx)

	assert.Empty(t, c.Lines())
	_, ok, err := sl.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptedSnapshotIsDiscarded(t *testing.T) {
	cases := map[string]string{
		"not json":          `{{{`,
		"not an array":      `{"product":{"id":"p"},"quantity":1}`,
		"null":              `null`,
		"missing product":   `[{"quantity":1}]`,
		"empty product id":  `[{"product":{"id":""},"quantity":1}]`,
		"zero quantity":     `[{"product":{"id":"p"},"quantity":0}]`,
		"negative quantity": `[{"product":{"id":"p"},"quantity":-2}]`,
		"fractional":        `[{"product":{"id":"p"},"quantity":1.5}]`,
		"string quantity":   `[{"product":{"id":"p"},"quantity":"2"}]`,
		"missing quantity":  `[{"product":{"id":"p"}}]`,
		"duplicate product": `[{"product":{"id":"p"},"quantity":1},{"product":{"id":"p"},"quantity":2}]`,
		"negative price":    `[{"product":{"id":"p","price":-1.5},"quantity":1}]`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sl := slot.NewMemorySlot()
			require.NoError(t, sl.Save(ctx, []byte(raw)))

			c := New(ctx, sl)

			assert.Empty(t, c.Lines())
			_, ok, _ := sl.Load(ctx)
			assert.False(t, ok, "corrupted snapshot should be removed")
		})
	}
}

func TestWholeFloatQuantityIsRestored(t *testing.T) {
	ctx := context.Background()
	sl := slot.NewMemorySlot()
	require.NoError(t, sl.Save(ctx, []byte(`[{"product":{"id":"p","price":2.5},"quantity":2.0},{"product":{"id":"q","price":1},"quantity":3e0}]`)))

	c := New(ctx, sl)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 3, lines[1].Quantity)
	total, err := c.Subtotal()
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("8")), total.String())
}

func TestSlotFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, brokenSlot{})

	require.NoError(t, c.AddItem(ctx, product("p", "1"), 2))
	c.UpdateQuantity(ctx, "p", 3)
	assert.Equal(t, 3, c.ItemCount())
	c.Clear(ctx)
	assert.Zero(t, c.ItemCount())
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("unchanged cart is cleared", func(t *testing.T) {
		sl := slot.NewMemorySlot()
		c := New(ctx, sl)
		require.NoError(t, c.AddItem(ctx, product("p", "1"), 2))
		snap := c.Snapshot()

		c.Settle(ctx, snap)

		assert.Empty(t, c.Lines())
		_, ok, _ := sl.Load(ctx)
		assert.False(t, ok)
	})

	t.Run("items added after the snapshot survive", func(t *testing.T) {
		c := New(ctx, slot.NewMemorySlot())
		require.NoError(t, c.AddItem(ctx, product("p", "1"), 2))
		snap := c.Snapshot()

		require.NoError(t, c.AddItem(ctx, product("p", "1"), 1))
		require.NoError(t, c.AddItem(ctx, product("q", "1"), 4))
		c.Settle(ctx, snap)

		lines := c.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, "p", lines[0].Product.ID)
		assert.Equal(t, 1, lines[0].Quantity)
		assert.Equal(t, "q", lines[1].Product.ID)
		assert.Equal(t, 4, lines[1].Quantity)
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, slot.NewMemorySlot())
	require.NoError(t, c.AddItem(ctx, product("p", "1"), 1))

	snap := c.Snapshot()
	snap.Lines[0].Quantity = 99

	assert.Equal(t, 1, c.ItemCount())
}
