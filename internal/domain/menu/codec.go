package menu

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/oolio-pos/internal/money"
)

// EncodeItem writes a single item as a JSON object.
func EncodeItem(e *jx.Encoder, it Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("price", func(e *jx.Encoder) { money.Encode(e, it.Price) })
		e.Field("image", func(e *jx.Encoder) { e.Str(it.Image) })
	})
}

// EncodeItems writes items as a JSON array.
func EncodeItems(e *jx.Encoder, items []Item) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			EncodeItem(e, it)
		}
	})
}

func marshalItems(items []Item) string {
	var e jx.Encoder
	EncodeItems(&e, items)
	return e.String()
}

// unmarshalItems decodes a stored catalog and rejects blobs that do not have
// the catalog shape: missing ids or names, non-positive or duplicate ids.
func unmarshalItems(raw string) ([]Item, error) {
	items := []Item{}
	seen := make(map[int]struct{})

	err := jx.DecodeStr(raw).Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return errors.Errorf("duplicate item id %d", it.ID)
		}
		seen[it.ID] = struct{}{}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode menu")
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var (
		it      Item
		hasName bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			it.ID, err = d.Int()
		case "name":
			it.Name, err = d.Str()
			hasName = true
		case "price":
			it.Price, err = money.Decode(d)
		case "image":
			it.Image, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return Item{}, err
	}
	if it.ID <= 0 {
		return Item{}, errors.Errorf("invalid item id %d", it.ID)
	}
	if !hasName {
		return Item{}, errors.Errorf("item %d has no name", it.ID)
	}
	return it, nil
}
