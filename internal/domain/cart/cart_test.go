package cart

import (
	"context"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/domain/menu"
	"github.com/xenking/oolio-pos/internal/kv"
	"github.com/xenking/oolio-pos/internal/storage/memory"
)

var (
	idly   = menu.Item{ID: 1, Name: "Idly", Price: decimal.NewFromInt(30)}
	coffee = menu.Item{ID: 4, Name: "Coffee", Price: decimal.NewFromInt(20)}
)

func newCart(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	store := memory.New()
	c, err := Load(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	return c, store
}

func TestAddItem_IncrementsExistingLine(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	require.NoError(t, c.AddItem(ctx, idly))
	require.NoError(t, c.AddItem(ctx, idly))

	lines := c.Current()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ID)
	assert.Equal(t, "Idly", lines[0].Name)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddItem_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	require.NoError(t, c.AddItem(ctx, coffee))
	require.NoError(t, c.AddItem(ctx, idly))
	require.NoError(t, c.AddItem(ctx, coffee))

	lines := c.Current()
	require.Len(t, lines, 2)
	assert.Equal(t, 4, lines[0].ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].ID)
}

func TestChangeQuantity(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))

	require.NoError(t, c.ChangeQuantity(ctx, 1, 3))
	assert.Equal(t, 4, c.Current()[0].Quantity)

	require.NoError(t, c.ChangeQuantity(ctx, 1, -1))
	assert.Equal(t, 3, c.Current()[0].Quantity)
}

func TestChangeQuantity_BelowOneRemovesLine(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))
	require.NoError(t, c.AddItem(ctx, idly))

	require.NoError(t, c.ChangeQuantity(ctx, 1, -5))
	assert.Empty(t, c.Current())
}

func TestChangeQuantity_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))

	require.NoError(t, c.ChangeQuantity(ctx, 99, -1))
	assert.Len(t, c.Current(), 1)
}

func TestChangeQuantityByMinusCurrentEqualsRemove(t *testing.T) {
	ctx := context.Background()
	a, storeA := newCart(t)
	b, storeB := newCart(t)
	for _, c := range []*Store{a, b} {
		require.NoError(t, c.AddItem(ctx, idly))
		require.NoError(t, c.AddItem(ctx, coffee))
		require.NoError(t, c.AddItem(ctx, coffee))
	}

	require.NoError(t, a.ChangeQuantity(ctx, 4, -2))
	require.NoError(t, b.RemoveItem(ctx, 4))

	assert.Equal(t, a.Current(), b.Current())
	rawA, err := storeA.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	rawB, err := storeB.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, rawA, rawB)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))
	require.NoError(t, c.AddItem(ctx, coffee))

	require.NoError(t, c.RemoveItem(ctx, 1))
	require.NoError(t, c.RemoveItem(ctx, 1))

	lines := c.Current()
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].ID)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c, store := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))

	require.NoError(t, c.Clear(ctx))
	assert.Empty(t, c.Current())
	assert.True(t, c.Empty())

	raw, err := store.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestCurrentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))

	lines := c.Current()
	lines[0].Quantity = 100
	assert.Equal(t, 1, c.Current()[0].Quantity)
}

func TestLoad_RestoresPersistedCart(t *testing.T) {
	ctx := context.Background()
	c, store := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))
	require.NoError(t, c.AddItem(ctx, coffee))
	require.NoError(t, c.AddItem(ctx, idly))

	restored, err := Load(ctx, store, zap.NewNop())
	require.NoError(t, err)

	want := c.Current()
	got := restored.Current()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].Price.Equal(got[i].Price))
	}
}

func TestLoad_CorruptOrInvalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantIDs []int
	}{
		{name: "garbage", raw: `nope`, wantIDs: nil},
		{name: "object", raw: `{"id":1}`, wantIDs: nil},
		{name: "duplicate ids", raw: `[{"id":1,"quantity":1},{"id":1,"quantity":2}]`, wantIDs: nil},
		{name: "zero quantity dropped", raw: `[{"id":1,"name":"Idly","price":30,"quantity":0},{"id":2,"name":"Puri","price":40,"quantity":1}]`, wantIDs: []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()
			require.NoError(t, store.Set(ctx, kv.KeyCart, tt.raw))

			c, err := Load(ctx, store, zap.NewNop())
			require.NoError(t, err)

			var got []int
			for _, l := range c.Current() {
				got = append(got, l.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestChangeQuantity_Overflow(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, idly))

	err := c.ChangeQuantity(ctx, 1, math.MaxInt)
	require.ErrorIs(t, err, ErrQuantityOverflow)

	lines := c.Current()
	require.Len(t, lines, 1, "line must survive a rejected change")
	assert.Equal(t, 1, lines[0].Quantity)

	require.NoError(t, c.ChangeQuantity(ctx, 1, math.MaxInt-1))
	assert.Equal(t, math.MaxInt, c.Current()[0].Quantity)
	require.ErrorIs(t, c.AddItem(ctx, idly), ErrQuantityOverflow)
}

type toggleStore struct {
	*memory.Store
	failSet bool
}

func (s *toggleStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return errors.New("disk full")
	}
	return s.Store.Set(ctx, key, value)
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("clears after success", func(t *testing.T) {
		c, store := newCart(t)
		require.NoError(t, c.AddItem(ctx, idly))
		require.NoError(t, c.AddItem(ctx, coffee))

		var seen []Line
		require.NoError(t, c.Settle(ctx, func(lines []Line) error {
			seen = lines
			return nil
		}))
		assert.Len(t, seen, 2)
		assert.Empty(t, c.Current())

		raw, err := store.Get(ctx, kv.KeyCart)
		require.NoError(t, err)
		assert.Equal(t, "[]", raw)
	})

	t.Run("keeps cart when fn fails", func(t *testing.T) {
		c, _ := newCart(t)
		require.NoError(t, c.AddItem(ctx, idly))

		boom := errors.New("boom")
		require.ErrorIs(t, c.Settle(ctx, func([]Line) error { return boom }), boom)
		assert.Len(t, c.Current(), 1)
	})

	t.Run("save failure after success", func(t *testing.T) {
		store := &toggleStore{Store: memory.New()}
		c, err := Load(ctx, store, zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, c.AddItem(ctx, idly))

		store.failSet = true
		err = c.Settle(ctx, func([]Line) error { return nil })
		var saveErr *SaveError
		require.ErrorAs(t, err, &saveErr)
		assert.Empty(t, c.Current())
	})

	t.Run("adds wait for the settle to finish", func(t *testing.T) {
		c, _ := newCart(t)
		require.NoError(t, c.AddItem(ctx, idly))

		entered := make(chan struct{})
		release := make(chan struct{})
		settled := make(chan error, 1)
		go func() {
			settled <- c.Settle(ctx, func([]Line) error {
				close(entered)
				<-release
				return nil
			})
		}()
		<-entered

		added := make(chan error, 1)
		go func() { added <- c.AddItem(ctx, coffee) }()
		close(release)

		require.NoError(t, <-settled)
		require.NoError(t, <-added)
		lines := c.Current()
		require.Len(t, lines, 1)
		assert.Equal(t, coffee.ID, lines[0].ID)
	})
}
