// Package sale is the append-only ledger of completed checkouts.
package sale

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Errors returned by Ledger.Record.
var (
	ErrNoItems              = errors.New("sale has no items")
	ErrMissingTransaction   = errors.New("transaction id required")
	ErrTotalMismatch        = errors.New("sale total does not match item subtotals")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
)

// Sale is an immutable record of a completed checkout.
type Sale struct {
	ID            string
	Date          string
	Timestamp     int64
	TransactionID string
	Items         []Item
	Total         decimal.Decimal
}

// Item is one line of a sale.
type Item struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Subtotal decimal.Decimal
}

// Draft is a sale that has not been recorded yet. Date may be left empty for
// the ledger to stamp.
type Draft struct {
	TransactionID string
	Date          string
	Items         []Item
	Total         decimal.Decimal
}

func (d Draft) validate() error {
	if d.TransactionID == "" {
		return ErrMissingTransaction
	}
	if len(d.Items) == 0 {
		return ErrNoItems
	}

	sum := decimal.Zero
	for _, it := range d.Items {
		if !it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Equal(it.Subtotal) {
			return errors.Wrapf(ErrTotalMismatch, "item %q", it.Name)
		}
		sum = sum.Add(it.Subtotal)
	}
	if !sum.Round(2).Equal(d.Total.Round(2)) {
		return errors.Wrapf(ErrTotalMismatch, "items sum to %s, total is %s", sum, d.Total)
	}
	return nil
}
