// Package billing computes bill totals and payment request strings. It has no
// side effects.
package billing

import (
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/oolio-pos/internal/domain/cart"
)

// Bill is the amount due for a cart at a point in time.
type Bill struct {
	Total decimal.Decimal
}

// Payee identifies who a payment request is addressed to.
type Payee struct {
	MerchantID string
	Name       string
	Currency   string
}

// Defaults used when a Payee field is empty.
const (
	DefaultPayeeName = "Restaurant"
	DefaultCurrency  = "INR"
)

// ComputeTotal returns the sum of price * quantity over lines. Rounding to 2
// decimal places happens once, on the final sum.
func ComputeTotal(lines []cart.Line) Bill {
	return Bill{Total: Subtotal(lines).Round(2)}
}

// Subtotal returns the unrounded sum of price * quantity over lines.
func Subtotal(lines []cart.Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineSubtotal(l))
	}
	return sum
}

// LineSubtotal returns price * quantity for a single line.
func LineSubtotal(l cart.Line) decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// BuildPaymentRequest formats a UPI payment URI for bill. The amount is the
// bill total as is; the payee name is query-escaped, everything else is
// embedded verbatim.
func BuildPaymentRequest(bill Bill, transactionID string, p Payee) string {
	name := p.Name
	if name == "" {
		name = DefaultPayeeName
	}
	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return "upi://pay?pa=" + p.MerchantID +
		"&pn=" + url.QueryEscape(name) +
		"&am=" + bill.Total.String() +
		"&tn=Bill-" + transactionID +
		"&cu=" + currency
}

// NewTransactionID derives a transaction id from the checkout instant.
func NewTransactionID(now time.Time) string {
	return "TXN" + strconv.FormatInt(now.UnixMilli(), 10)
}
