// Package money encodes decimal amounts as JSON numbers.
package money

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes v as a bare JSON number.
func Encode(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// Decode reads an amount written either as a JSON number or as a numeric
// string.
func Decode(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, errors.Errorf("amount: unexpected %s", d.Next())
	}
}
