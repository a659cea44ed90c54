package menu

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/kv"
)

// Repository provides CRUD over the catalog stored under kv.KeyMenu. Every
// mutation rewrites the whole catalog.
type Repository struct {
	store kv.Store
	lg    *zap.Logger

	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// NewRepository returns a Repository backed by store.
func NewRepository(store kv.Store, lg *zap.Logger) *Repository {
	return &Repository{store: store, lg: lg}
}

// List returns the catalog in insertion order. A store without a catalog is
// seeded with DefaultCatalog first.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx)
}

// GetByID returns the item with the given id. The boolean is false when no
// such item exists.
func (r *Repository) GetByID(ctx context.Context, id int) (Item, bool, error) {
	items, err := r.List(ctx)
	if err != nil {
		return Item{}, false, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return Item{}, false, nil
	}
	return items[i], true, nil
}

// Add appends c to the catalog with the next free id.
func (r *Repository) Add(ctx context.Context, c Candidate) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return Item{}, err
	}

	it := Item{
		ID:    nextID(items),
		Name:  c.Name,
		Price: c.Price,
		Image: c.Image,
	}
	items = append(items, it)
	if err := r.save(ctx, items); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Update merges p into the item with the given id. The boolean is false when
// no such item exists, in which case nothing is written.
func (r *Repository) Update(ctx context.Context, id int, p Patch) (Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return Item{}, false, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return Item{}, false, nil
	}

	items[i] = p.apply(items[i])
	if err := r.save(ctx, items); err != nil {
		return Item{}, false, err
	}
	return items[i], true, nil
}

// Remove deletes the item with the given id, if present, and returns the
// resulting catalog.
func (r *Repository) Remove(ctx context.Context, id int) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	items = slices.DeleteFunc(items, func(it Item) bool { return it.ID == id })
	if err := r.save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Reset replaces the catalog with DefaultCatalog.
func (r *Repository) Reset(ctx context.Context) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.seed(ctx)
}

func (r *Repository) load(ctx context.Context) ([]Item, error) {
	raw, err := r.store.Get(ctx, kv.KeyMenu)
	if errors.Is(err, kv.ErrNotFound) {
		return r.seed(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get menu")
	}

	items, err := unmarshalItems(raw)
	if err != nil {
		r.lg.Warn("Stored menu is corrupt, restoring default catalog", zap.Error(err))
		return r.seed(ctx)
	}
	return items, nil
}

func (r *Repository) seed(ctx context.Context) ([]Item, error) {
	items := DefaultCatalog()
	if err := r.save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) save(ctx context.Context, items []Item) error {
	if err := r.store.Set(ctx, kv.KeyMenu, marshalItems(items)); err != nil {
		return errors.Wrap(err, "save menu")
	}
	return nil
}

func indexOf(items []Item, id int) int {
	return slices.IndexFunc(items, func(it Item) bool { return it.ID == id })
}

// nextID returns max(existing ids)+1, or 1 for an empty catalog.
func nextID(items []Item) int {
	next := 1
	for _, it := range items {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	return next
}
