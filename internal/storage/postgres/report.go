package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/kv"
)

// Revenue is a ledger aggregate computed in the database.
type Revenue struct {
	Total decimal.Decimal
	Count int64
}

// Sales are bucketed by their millisecond timestamp in the report timezone,
// the same calendar the server uses for month summaries.
const revenueQuery = `SELECT COALESCE(SUM((sale->>'total')::numeric), 0), COUNT(*)
FROM kv_entries, jsonb_array_elements(kv_entries.value::jsonb) AS sale
WHERE kv_entries.key = $1
  AND ($2::text = '' OR to_char(
    to_timestamp((sale->>'timestamp')::bigint / 1000.0) AT TIME ZONE $3::text,
    'YYYY-MM') = $2::text)`

// LedgerRevenue sums the stored sales of one month ("YYYY-MM") in loc, or of
// every month when month is empty. loc must be an IANA zone.
func (s *Store) LedgerRevenue(ctx context.Context, month string, loc *time.Location) (Revenue, error) {
	zone := loc.String()
	if zone == "Local" {
		return Revenue{}, errors.New("ledger revenue: local timezone has no IANA name")
	}
	var r Revenue
	if err := s.pool.QueryRow(ctx, revenueQuery, kv.KeySales, month, zone).Scan(&r.Total, &r.Count); err != nil {
		return Revenue{}, errors.Wrap(err, "ledger revenue")
	}
	return r, nil
}
