package sale

import (
	"cmp"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const monthKeyLayout = "2006-01"

// MonthSummary aggregates the sales of one calendar month.
type MonthSummary struct {
	Key   string
	Total decimal.Decimal
	Count int
}

// MonthOption is a month that has at least one sale, for month pickers.
type MonthOption struct {
	Key   string
	Label string
}

// Stats summarizes a set of sales.
type Stats struct {
	Revenue decimal.Decimal
	Count   int
	Average decimal.Decimal
}

// Time returns the recording instant of s in loc.
func (s Sale) Time(loc *time.Location) time.Time {
	return time.UnixMilli(s.Timestamp).In(loc)
}

// MonthKey returns the "YYYY-MM" month s was recorded in, in loc.
func (s Sale) MonthKey(loc *time.Location) string {
	return s.Time(loc).Format(monthKeyLayout)
}

// ParseMonthKey parses a "YYYY-MM" key.
func ParseMonthKey(key string) (time.Month, int, error) {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "parse month %q", key)
	}
	return t.Month(), t.Year(), nil
}

// FilterByMonth returns the sales recorded in the given month of year, as
// seen in loc. Order is preserved.
func FilterByMonth(sales []Sale, month time.Month, year int, loc *time.Location) []Sale {
	out := []Sale{}
	for _, s := range sales {
		t := s.Time(loc)
		if t.Month() == month && t.Year() == year {
			out = append(out, s)
		}
	}
	return out
}

// SummarizeByMonth groups sales by calendar month in loc, most recent month
// first.
func SummarizeByMonth(sales []Sale, loc *time.Location) []MonthSummary {
	byKey := make(map[string]*MonthSummary)
	for _, s := range sales {
		key := s.MonthKey(loc)
		m, ok := byKey[key]
		if !ok {
			m = &MonthSummary{Key: key, Total: decimal.Zero}
			byKey[key] = m
		}
		m.Total = m.Total.Add(s.Total)
		m.Count++
	}

	out := make([]MonthSummary, 0, len(byKey))
	for _, m := range byKey {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b MonthSummary) int {
		return cmp.Compare(b.Key, a.Key)
	})
	return out
}

// Months lists the distinct months that have sales, most recent first.
func Months(sales []Sale, loc *time.Location) []MonthOption {
	seen := make(map[string]bool)
	out := []MonthOption{}
	for _, s := range sales {
		t := s.Time(loc)
		key := t.Format(monthKeyLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, MonthOption{Key: key, Label: t.Format("January 2006")})
	}
	slices.SortFunc(out, func(a, b MonthOption) int {
		return cmp.Compare(b.Key, a.Key)
	})
	return out
}

// Summarize returns revenue, transaction count and average order value.
func Summarize(sales []Sale) Stats {
	st := Stats{Revenue: decimal.Zero, Average: decimal.Zero}
	for _, s := range sales {
		st.Revenue = st.Revenue.Add(s.Total)
	}
	st.Count = len(sales)
	if st.Count > 0 {
		st.Average = st.Revenue.Div(decimal.NewFromInt(int64(st.Count))).Round(2)
	}
	return st
}

// NewestFirst returns a copy of sales ordered by timestamp, most recent
// first.
func NewestFirst(sales []Sale) []Sale {
	out := slices.Clone(sales)
	slices.SortStableFunc(out, func(a, b Sale) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}
