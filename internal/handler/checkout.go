package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos/internal/domain/checkout"
	"github.com/xenking/oolio-pos/internal/domain/sale"
	"github.com/xenking/oolio-pos/internal/money"
)

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	var modeName string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "mode" {
			return d.Skip()
		}
		v, err := d.Str()
		modeName = v
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := checkout.ParseMode(modeName)
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("sale", func(e *jx.Encoder) { sale.EncodeSale(e, receipt.Sale) })
			e.Field("total", func(e *jx.Encoder) { money.Encode(e, receipt.Bill.Total) })
			if receipt.PaymentRequest != "" {
				e.Field("paymentRequest", func(e *jx.Encoder) { e.Str(receipt.PaymentRequest) })
			}
		})
	})
}
