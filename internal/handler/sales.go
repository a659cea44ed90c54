package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos/internal/domain/sale"
	"github.com/xenking/oolio-pos/internal/money"
)

// listSales serves one month of sales, newest first, with its stats. The
// month defaults to the current one.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	now := h.now().In(h.loc)
	month, year := now.Month(), now.Year()
	if key := r.URL.Query().Get("month"); key != "" {
		var err error
		if month, year, err = sale.ParseMonthKey(key); err != nil {
			writeError(w, r, errors.Wrap(errBadRequest, err.Error()))
			return
		}
	}

	sales, err := h.ledger.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	selected := sale.NewestFirst(sale.FilterByMonth(sales, month, year, h.loc))
	stats := sale.Summarize(selected)
	first := time.Date(year, month, 1, 0, 0, 0, 0, h.loc)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("month", func(e *jx.Encoder) { e.Str(first.Format("2006-01")) })
			e.Field("label", func(e *jx.Encoder) { e.Str(first.Format("January 2006")) })
			e.Field("stats", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("revenue", func(e *jx.Encoder) { money.Encode(e, stats.Revenue) })
					e.Field("count", func(e *jx.Encoder) { e.Int(stats.Count) })
					e.Field("average", func(e *jx.Encoder) { money.Encode(e, stats.Average) })
				})
			})
			e.Field("sales", func(e *jx.Encoder) { sale.EncodeSales(e, selected) })
		})
	})
}

func (h *Handler) salesSummary(w http.ResponseWriter, r *http.Request) {
	sales, err := h.ledger.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary := sale.SummarizeByMonth(sales, h.loc)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, m := range summary {
				e.Obj(func(e *jx.Encoder) {
					e.Field("month", func(e *jx.Encoder) { e.Str(m.Key) })
					e.Field("total", func(e *jx.Encoder) { money.Encode(e, m.Total) })
					e.Field("count", func(e *jx.Encoder) { e.Int(m.Count) })
				})
			}
		})
	})
}

func (h *Handler) salesMonths(w http.ResponseWriter, r *http.Request) {
	sales, err := h.ledger.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	months := sale.Months(sales, h.loc)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, m := range months {
				e.Obj(func(e *jx.Encoder) {
					e.Field("key", func(e *jx.Encoder) { e.Str(m.Key) })
					e.Field("label", func(e *jx.Encoder) { e.Str(m.Label) })
				})
			}
		})
	})
}
