package sale

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/kv"
)

const (
	bloomCapacity = 100_000
	bloomFPR      = 0.001
)

// Ledger appends sales to the list stored under kv.KeySales. Recorded sales
// are never changed or removed.
type Ledger struct {
	store kv.Store
	lg    *zap.Logger
	loc   *time.Location
	now   func() time.Time

	mu sync.Mutex
	// seen holds the transaction ids of the first indexed sales. The stored
	// list only grows, so new sales are indexed incrementally.
	seen    *bloom.BloomFilter
	indexed int
}

// NewLedger returns a Ledger backed by store. loc is the calendar used to
// stamp the date of a sale.
func NewLedger(store kv.Store, lg *zap.Logger, loc *time.Location) *Ledger {
	return &Ledger{
		store: store,
		lg:    lg,
		loc:   loc,
		now:   time.Now,
		seen:  bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// List returns every recorded sale in the order it was recorded. A corrupt
// ledger reads as empty.
func (l *Ledger) List(ctx context.Context) ([]Sale, error) {
	raw, err := l.store.Get(ctx, kv.KeySales)
	if errors.Is(err, kv.ErrNotFound) {
		return []Sale{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get sales")
	}

	sales, err := ParseSales(raw)
	if err != nil {
		l.lg.Warn("Stored sales are corrupt, reading as empty", zap.Error(err))
		return []Sale{}, nil
	}
	return sales, nil
}

// Record stamps d with an id, timestamp and (if missing) date taken from the
// current instant and appends it to the ledger.
func (l *Ledger) Record(ctx context.Context, d Draft) (Sale, error) {
	if err := d.validate(); err != nil {
		return Sale{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sales, err := l.loadForAppend(ctx)
	if err != nil {
		return Sale{}, err
	}
	l.index(sales)

	if l.seen.TestString(d.TransactionID) && slices.ContainsFunc(sales, func(s Sale) bool {
		return s.TransactionID == d.TransactionID
	}) {
		return Sale{}, errors.Wrapf(ErrDuplicateTransaction, "transaction %s", d.TransactionID)
	}

	now := l.now()
	ts := now.UnixMilli()
	// Ids stay unique when two sales land in the same millisecond.
	if n := len(sales); n > 0 && sales[n-1].Timestamp >= ts {
		ts = sales[n-1].Timestamp + 1
	}
	s := Sale{
		ID:            strconv.FormatInt(ts, 10),
		Date:          d.Date,
		Timestamp:     ts,
		TransactionID: d.TransactionID,
		Items:         slices.Clone(d.Items),
		Total:         d.Total,
	}
	if s.Date == "" {
		s.Date = now.In(l.loc).Format(time.DateOnly)
	}

	sales = append(sales, s)
	if err := l.store.Set(ctx, kv.KeySales, marshalSales(sales)); err != nil {
		return Sale{}, errors.Wrap(err, "save sales")
	}
	l.seen.AddString(s.TransactionID)
	l.indexed = len(sales)

	return s, nil
}

// loadForAppend reads the ledger for a write. A corrupt ledger is copied to a
// side key before being replaced, so history is never overwritten.
func (l *Ledger) loadForAppend(ctx context.Context) ([]Sale, error) {
	raw, err := l.store.Get(ctx, kv.KeySales)
	if errors.Is(err, kv.ErrNotFound) {
		return []Sale{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get sales")
	}

	sales, err := ParseSales(raw)
	if err == nil {
		return sales, nil
	}

	backup := kv.KeySales + ".corrupt." + strconv.FormatInt(l.now().UnixMilli(), 10)
	if err := l.store.Set(ctx, backup, raw); err != nil {
		return nil, errors.Wrap(err, "back up corrupt sales")
	}
	l.lg.Warn("Stored sales are corrupt, starting a new ledger",
		zap.String("backup_key", backup),
		zap.Error(err),
	)
	return []Sale{}, nil
}

// index adds the transaction ids of sales not yet in the filter. If the
// stored list shrank, it was replaced outside this ledger and the filter is
// rebuilt.
func (l *Ledger) index(sales []Sale) {
	if len(sales) < l.indexed {
		l.seen.ClearAll()
		l.indexed = 0
	}
	for _, s := range sales[l.indexed:] {
		l.seen.AddString(s.TransactionID)
	}
	l.indexed = len(sales)
}
