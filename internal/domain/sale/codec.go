package sale

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos/internal/money"
)

// EncodeSale writes s as a JSON object.
func EncodeSale(e *jx.Encoder, s Sale) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
		e.Field("date", func(e *jx.Encoder) { e.Str(s.Date) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Int64(s.Timestamp) })
		e.Field("transactionId", func(e *jx.Encoder) { e.Str(s.TransactionID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range s.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("price", func(e *jx.Encoder) { money.Encode(e, it.Price) })
						e.Field("subtotal", func(e *jx.Encoder) { money.Encode(e, it.Subtotal) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { money.Encode(e, s.Total) })
	})
}

// EncodeSales writes sales as a JSON array.
func EncodeSales(e *jx.Encoder, sales []Sale) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range sales {
			EncodeSale(e, s)
		}
	})
}

func marshalSales(sales []Sale) string {
	var e jx.Encoder
	EncodeSales(&e, sales)
	return e.String()
}

// ParseSales decodes the stored form of the ledger.
func ParseSales(raw string) ([]Sale, error) {
	sales := []Sale{}
	err := jx.DecodeStr(raw).Arr(func(d *jx.Decoder) error {
		s, err := decodeSale(d)
		if err != nil {
			return err
		}
		sales = append(sales, s)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode sales")
	}
	return sales, nil
}

func decodeSale(d *jx.Decoder) (Sale, error) {
	s := Sale{Items: []Item{}}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			s.ID, err = d.Str()
		case "date":
			s.Date, err = d.Str()
		case "timestamp":
			s.Timestamp, err = d.Int64()
		case "transactionId":
			s.TransactionID, err = d.Str()
		case "total":
			s.Total, err = money.Decode(d)
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				it, err := decodeItem(d)
				if err != nil {
					return err
				}
				s.Items = append(s.Items, it)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return Sale{}, err
	}
	if s.ID == "" || s.Timestamp <= 0 {
		return Sale{}, errors.Errorf("sale %q has no id or timestamp", s.TransactionID)
	}
	return s, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var it Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			it.Name, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		case "price":
			it.Price, err = money.Decode(d)
		case "subtotal":
			it.Subtotal, err = money.Decode(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}
