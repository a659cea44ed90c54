// Package cart holds the counter cart: the items selected for the next sale.
package cart

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/domain/menu"
	"github.com/xenking/oolio-pos/internal/kv"
)

// Line is one menu item with the quantity chosen for it. ID refers to a menu
// item but is not checked against the current catalog.
type Line struct {
	ID       int
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// ErrQuantityOverflow is returned when a change would push a line quantity
// past math.MaxInt.
var ErrQuantityOverflow = errors.New("quantity too large")

// SaveError reports that an in-memory change was applied but the cart could
// not be persisted.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return "save cart: " + e.Err.Error() }

func (e *SaveError) Unwrap() error { return e.Err }

// Store is the in-memory cart mirrored to kv.KeyCart after every mutation.
//
// A line moves absent -> present(1) on its first add, changes quantity on
// repeat adds and ChangeQuantity, and becomes absent again on RemoveItem or
// when its quantity drops to zero or below.
type Store struct {
	store kv.Store

	mu    sync.Mutex
	lines []Line
}

// Load restores the cart persisted in store. A missing or corrupt cart yields
// an empty one.
func Load(ctx context.Context, store kv.Store, lg *zap.Logger) (*Store, error) {
	s := &Store{store: store, lines: []Line{}}

	raw, err := store.Get(ctx, kv.KeyCart)
	if errors.Is(err, kv.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	lines, err := unmarshalLines(raw)
	if err != nil {
		lg.Warn("Stored cart is corrupt, starting empty", zap.Error(err))
		return s, nil
	}
	s.lines = lines
	return s, nil
}

// AddItem adds one unit of it.
func (s *Store) AddItem(ctx context.Context, it menu.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(it.ID); i >= 0 {
		if s.lines[i].Quantity == math.MaxInt {
			return ErrQuantityOverflow
		}
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, Line{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: 1,
		})
	}
	return s.save(ctx)
}

// RemoveItem drops the line for id. Removing an absent id still persists.
func (s *Store) RemoveItem(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = slices.DeleteFunc(s.lines, func(l Line) bool { return l.ID == id })
	return s.save(ctx)
}

// ChangeQuantity adds delta to the quantity of the line for id and removes
// the line when the result is not positive. An absent id is ignored.
func (s *Store) ChangeQuantity(ctx context.Context, id, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	if delta > 0 && s.lines[i].Quantity > math.MaxInt-delta {
		return errors.Wrapf(ErrQuantityOverflow, "item %d", id)
	}
	if q := s.lines[i].Quantity + delta; q > 0 {
		s.lines[i].Quantity = q
	} else {
		s.lines = slices.Delete(s.lines, i, i+1)
	}
	return s.save(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []Line{}
	return s.save(ctx)
}

// Settle hands the current lines to fn while holding the cart and empties the
// cart when fn succeeds, so no mutation lands between what fn saw and the
// clear. An error from fn is returned unchanged and leaves the cart intact.
// If the emptied cart cannot be persisted, the in-memory cart stays empty and
// a *SaveError is returned.
func (s *Store) Settle(ctx context.Context, fn func(lines []Line) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(slices.Clone(s.lines)); err != nil {
		return err
	}
	s.lines = []Line{}
	if err := s.save(ctx); err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// Current returns a copy of the cart lines in insertion order.
func (s *Store) Current() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.lines)
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.lines) == 0
}

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.lines, func(l Line) bool { return l.ID == id })
}

func (s *Store) save(ctx context.Context) error {
	if err := s.store.Set(ctx, kv.KeyCart, marshalLines(s.lines)); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}
