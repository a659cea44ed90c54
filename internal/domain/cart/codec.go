package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos/internal/money"
)

// EncodeLines writes lines as a JSON array.
func EncodeLines(e *jx.Encoder, lines []Line) {
	e.Arr(func(e *jx.Encoder) {
		for _, l := range lines {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Int(l.ID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
				e.Field("price", func(e *jx.Encoder) { money.Encode(e, l.Price) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
			})
		}
	})
}

func marshalLines(lines []Line) string {
	var e jx.Encoder
	EncodeLines(&e, lines)
	return e.String()
}

// unmarshalLines decodes a stored cart. Lines with a non-positive quantity
// are dropped; a repeated id is treated as corruption.
func unmarshalLines(raw string) ([]Line, error) {
	lines := []Line{}
	seen := make(map[int]struct{})

	err := jx.DecodeStr(raw).Arr(func(d *jx.Decoder) error {
		var l Line
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				l.ID, err = d.Int()
			case "name":
				l.Name, err = d.Str()
			case "price":
				l.Price, err = money.Decode(d)
			case "quantity":
				l.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		if _, dup := seen[l.ID]; dup {
			return errors.Errorf("duplicate cart line %d", l.ID)
		}
		seen[l.ID] = struct{}{}
		if l.Quantity > 0 {
			lines = append(lines, l)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return lines, nil
}
