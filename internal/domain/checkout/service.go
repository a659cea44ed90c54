// Package checkout turns the counter cart into a recorded sale.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/billing"
	"github.com/xenking/oolio-pos/internal/domain/cart"
	"github.com/xenking/oolio-pos/internal/domain/sale"
)

// ErrEmptyCart is returned when checking out, printing or clearing a cart
// with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// Mode selects how the customer settles the bill.
type Mode string

const (
	// ModePay shows a payment request for the customer to scan.
	ModePay Mode = "pay"
	// ModePrint prints a receipt.
	ModePrint Mode = "print"
)

// ErrUnknownMode is returned by ParseMode for anything but "pay" or "print".
var ErrUnknownMode = errors.New("unknown checkout mode")

// ParseMode validates a checkout mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModePay, ModePrint:
		return m, nil
	default:
		return "", errors.Wrapf(ErrUnknownMode, "%q", s)
	}
}

// Receipt is the result of a checkout.
type Receipt struct {
	Sale sale.Sale
	Bill billing.Bill
	// PaymentRequest is set in ModePay only.
	PaymentRequest string
}

// Ledger records sales.
type Ledger interface {
	Record(ctx context.Context, d sale.Draft) (sale.Sale, error)
}

// Service settles the cart: it records exactly one sale per checkout and
// clears the cart afterwards.
type Service struct {
	cart   *cart.Store
	ledger Ledger
	payee  billing.Payee
	loc    *time.Location
	now    func() time.Time

	// mu guards last.
	mu sync.Mutex
	// last is the instant of the previous checkout; transaction ids are
	// millisecond based and must not repeat.
	last time.Time

	tracer  trace.Tracer
	sales   metric.Int64Counter
	revenue metric.Float64Counter
}

// NewService creates a checkout Service. loc is the calendar used for the
// sale date.
func NewService(
	c *cart.Store,
	ledger Ledger,
	payee billing.Payee,
	loc *time.Location,
	meter metric.Meter,
	tracer trace.Tracer,
) (*Service, error) {
	sales, err := meter.Int64Counter("pos.sales.recorded",
		metric.WithDescription("Number of recorded sales"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create sales counter")
	}
	revenue, err := meter.Float64Counter("pos.sales.revenue",
		metric.WithDescription("Sum of recorded sale totals"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create revenue counter")
	}

	return &Service{
		cart:    c,
		ledger:  ledger,
		payee:   payee,
		loc:     loc,
		now:     time.Now,
		tracer:  tracer,
		sales:   sales,
		revenue: revenue,
	}, nil
}

// Checkout records the current cart as a sale and clears the cart.
func (s *Service) Checkout(ctx context.Context, mode Mode) (_ *Receipt, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Checkout",
		trace.WithAttributes(attribute.String("pos.checkout.mode", string(mode))),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	var r *Receipt
	err := s.cart.Settle(ctx, func(lines []cart.Line) error {
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		var err error
		r, err = s.record(ctx, mode, lines)
		return err
	})
	var saveErr *cart.SaveError
	switch {
	case errors.As(err, &saveErr):
		// The sale is recorded and the cart is empty in memory; only the
		// persisted copy is stale.
		zctx.From(ctx).Error("Clear cart after checkout",
			zap.String("transaction_id", r.Sale.TransactionID),
			zap.Error(saveErr.Err),
		)
	case err != nil:
		return nil, err
	}

	zctx.From(ctx).Info("Sale recorded",
		zap.String("transaction_id", r.Sale.TransactionID),
		zap.String("mode", string(mode)),
		zap.Stringer("total", r.Bill.Total),
	)
	return r, nil
}

// record writes lines to the ledger. It runs with the cart locked.
func (s *Service) record(ctx context.Context, mode Mode, lines []cart.Line) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.UnixMilli() <= s.last.UnixMilli() {
		now = s.last.Add(time.Millisecond)
	}
	s.last = now
	bill := billing.ComputeTotal(lines)
	txID := billing.NewTransactionID(now)

	items := make([]sale.Item, len(lines))
	for i, l := range lines {
		items[i] = sale.Item{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.Price,
			Subtotal: billing.LineSubtotal(l),
		}
	}

	recorded, err := s.ledger.Record(ctx, sale.Draft{
		TransactionID: txID,
		Date:          now.In(s.loc).Format(time.DateOnly),
		Items:         items,
		Total:         bill.Total,
	})
	if err != nil {
		return nil, errors.Wrap(err, "record sale")
	}

	attrs := metric.WithAttributes(attribute.String("mode", string(mode)))
	s.sales.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, bill.Total.InexactFloat64(), attrs)

	r := &Receipt{Sale: recorded, Bill: bill}
	if mode == ModePay {
		r.PaymentRequest = billing.BuildPaymentRequest(bill, txID, s.payee)
	}
	return r, nil
}

// Clear empties the cart, refusing when it is already empty.
func (s *Service) Clear(ctx context.Context) error {
	return s.cart.Settle(ctx, func(lines []cart.Line) error {
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		return nil
	})
}
