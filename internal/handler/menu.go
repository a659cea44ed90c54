package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/menu"
	"github.com/xenking/oolio-pos/internal/imagesrc"
)

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { menu.EncodeItems(e, items) })
}

func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	it, ok, err := h.menu.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, errors.Wrapf(errNotFound, "menu item %d", id))
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { menu.EncodeItem(e, it) })
}

// itemForm is the admin item form: name, price, imagePath and an optional
// image file.
type itemForm struct {
	name, price, imagePath string
	hasName, hasPrice      bool
	file                   multipart.File
}

func (f *itemForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

func (h *Handler) parseItemForm(w http.ResponseWriter, r *http.Request) (*itemForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+maxBodySize)
	err := r.ParseMultipartForm(maxBodySize)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return nil, errors.Wrap(errBadRequest, "parse form")
		}
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.Wrapf(imagesrc.ErrImageRead, "image exceeds %d bytes", h.maxImageSize)
		}
		return nil, errors.Wrap(errBadRequest, "parse form")
	}

	f := &itemForm{
		name:      strings.TrimSpace(r.PostFormValue("name")),
		price:     strings.TrimSpace(r.PostFormValue("price")),
		imagePath: r.PostFormValue("imagePath"),
	}
	_, f.hasName = r.PostForm["name"]
	_, f.hasPrice = r.PostForm["price"]

	if r.MultipartForm != nil {
		file, _, err := r.FormFile("image")
		switch {
		case err == nil:
			f.file = file
		case !errors.Is(err, http.ErrMissingFile):
			return nil, errors.Wrap(imagesrc.ErrImageRead, err.Error())
		}
	}
	return f, nil
}

// formPrice returns zero for a missing or malformed price, which the menu
// validation rejects.
func formPrice(s string) decimal.Decimal {
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return p
}

// fileReader returns the uploaded file as an io.Reader, or nil.
func (f *itemForm) fileReader() io.Reader {
	if f.file == nil {
		return nil
	}
	return f.file
}

func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := h.parseItemForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	c := menu.Candidate{Name: form.name, Price: formPrice(form.price)}
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	c.Image, err = h.images.Resolve(ctx, imagesrc.Input{
		File: form.fileReader(),
		Path: form.imagePath,
		Name: c.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	it, err := h.menu.Add(ctx, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { menu.EncodeItem(e, it) })
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	form, err := h.parseItemForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer form.Close()

	var p menu.Patch
	if form.hasName {
		p.Name = &form.name
	}
	if form.hasPrice {
		price := formPrice(form.price)
		p.Price = &price
	}
	if err := p.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	current, ok, err := h.menu.GetByID(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, errors.Wrapf(errNotFound, "menu item %d", id))
		return
	}

	// The image changes only when the form supplies a file or a path.
	if form.file != nil || strings.TrimSpace(form.imagePath) != "" {
		name := current.Name
		if p.Name != nil {
			name = *p.Name
		}
		img, err := h.images.Resolve(ctx, imagesrc.Input{
			File: form.fileReader(),
			Path: form.imagePath,
			Name: name,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		p.Image = &img
	}

	it, ok, err := h.menu.Update(ctx, id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, errors.Wrapf(errNotFound, "menu item %d", id))
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { menu.EncodeItem(e, it) })
}

func (h *Handler) removeMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.menu.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { menu.EncodeItems(e, items) })
}
