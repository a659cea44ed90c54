// Package handler serves the POS JSON API over net/http.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/xenking/oolio-pos/internal/domain/cart"
	"github.com/xenking/oolio-pos/internal/domain/checkout"
	"github.com/xenking/oolio-pos/internal/domain/menu"
	"github.com/xenking/oolio-pos/internal/domain/sale"
	"github.com/xenking/oolio-pos/internal/imagesrc"
)

// MenuRepository is the catalog the handler edits.
type MenuRepository interface {
	List(ctx context.Context) ([]menu.Item, error)
	GetByID(ctx context.Context, id int) (menu.Item, bool, error)
	Add(ctx context.Context, c menu.Candidate) (menu.Item, error)
	Update(ctx context.Context, id int, p menu.Patch) (menu.Item, bool, error)
	Remove(ctx context.Context, id int) ([]menu.Item, error)
}

// SalesLedger lists recorded sales.
type SalesLedger interface {
	List(ctx context.Context) ([]sale.Sale, error)
}

// Config holds non-dependency settings of the Handler.
type Config struct {
	// Location is the calendar for month reports.
	Location *time.Location
	// MaxImageSize bounds uploaded item images in bytes.
	MaxImageSize int64
}

// Handler implements the /api routes.
type Handler struct {
	menu     MenuRepository
	cart     *cart.Store
	checkout *checkout.Service
	ledger   SalesLedger
	images   *imagesrc.Resolver

	loc          *time.Location
	maxImageSize int64
	now          func() time.Time
}

// New constructs a Handler.
func New(
	cfg Config,
	menuRepo MenuRepository,
	c *cart.Store,
	checkoutSvc *checkout.Service,
	ledger SalesLedger,
) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	maxImage := cfg.MaxImageSize
	if maxImage <= 0 {
		maxImage = imagesrc.DefaultMaxSize
	}
	return &Handler{
		menu:         menuRepo,
		cart:         c,
		checkout:     checkoutSvc,
		ledger:       ledger,
		images:       imagesrc.New(maxImage),
		loc:          loc,
		maxImageSize: maxImage,
		now:          time.Now,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.listMenu)
	mux.HandleFunc("GET /api/menu/{id}", h.getMenuItem)
	mux.HandleFunc("POST /api/menu", h.addMenuItem)
	mux.HandleFunc("PUT /api/menu/{id}", h.updateMenuItem)
	mux.HandleFunc("DELETE /api/menu/{id}", h.removeMenuItem)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.changeCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/checkout", h.checkoutCart)

	mux.HandleFunc("GET /api/sales", h.listSales)
	mux.HandleFunc("GET /api/sales/summary", h.salesSummary)
	mux.HandleFunc("GET /api/sales/months", h.salesMonths)
}
