package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos/internal/billing"
	"github.com/xenking/oolio-pos/internal/domain/cart"
	"github.com/xenking/oolio-pos/internal/domain/checkout"
	"github.com/xenking/oolio-pos/internal/money"
)

// encodeCart writes the cart lines with the bill total.
func encodeCart(e *jx.Encoder, lines []cart.Line) {
	bill := billing.ComputeTotal(lines)
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) { cart.EncodeLines(e, lines) })
		e.Field("total", func(e *jx.Encoder) { money.Encode(e, bill.Total) })
	})
}

func (h *Handler) writeCart(w http.ResponseWriter) {
	lines := h.cart.Current()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, lines) })
}

func (h *Handler) getCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCart(w)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var id int
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		v, err := d.Int()
		id = v
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if id <= 0 {
		writeError(w, r, errors.Wrap(errBadRequest, "id is required"))
		return
	}

	it, ok, err := h.menu.GetByID(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, errors.Wrapf(errNotFound, "menu item %d", id))
		return
	}
	if err := h.cart.AddItem(ctx, it); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

func (h *Handler) changeCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var delta int
	var hasDelta bool
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "delta" {
			return d.Skip()
		}
		v, err := d.Int()
		delta, hasDelta = v, true
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if !hasDelta {
		writeError(w, r, errors.Wrap(errBadRequest, "delta is required"))
		return
	}

	if err := h.cart.ChangeQuantity(r.Context(), id, delta); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cart.RemoveItem(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Clear(r.Context()); err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeErrorMessage(w, http.StatusConflict, "Cart is already empty!")
			return
		}
		writeError(w, r, err)
		return
	}
	h.writeCart(w)
}
