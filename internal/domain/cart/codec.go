package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode serializes lines into the persisted format: a JSON array of
// {id, name, price, image, quantity} objects in display order.
func Encode(lines []Line) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, l := range lines {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
				e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(l.UnitPrice.String())) })
				e.Field("image", func(e *jx.Encoder) { e.Str(l.Image) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
			})
		}
	})
	return e.Bytes()
}

// Decode parses the persisted format back into lines. Any shape mismatch is
// reported as a *DeserializationError.
func Decode(data []byte) ([]Line, error) {
	lines, err := decodeLines(data)
	if err != nil {
		return nil, &DeserializationError{Err: err}
	}
	return lines, nil
}

func decodeLines(data []byte) ([]Line, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("expected array")
	}

	var (
		lines []Line
		seen  = make(map[string]struct{})
	)
	if err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return errors.Wrapf(err, "line %d", len(lines))
		}
		if _, dup := seen[l.ID]; dup {
			return errors.Errorf("duplicate id %q", l.ID)
		}
		seen[l.ID] = struct{}{}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, err
	}

	if d.Next() != jx.Invalid {
		return nil, errors.New("unexpected trailing data")
	}
	return lines, nil
}

const (
	hasID = 1 << iota
	hasName
	hasPrice
	hasImage
	hasQuantity

	hasAll = hasID | hasName | hasPrice | hasImage | hasQuantity
)

func decodeLine(d *jx.Decoder) (Line, error) {
	if d.Next() != jx.Object {
		return Line{}, errors.New("expected object")
	}

	var (
		l    Line
		seen int
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			l.ID, err = decodeID(d)
			seen |= hasID
		case "name":
			l.Name, err = d.Str()
			seen |= hasName
		case "price":
			l.UnitPrice, err = decodePrice(d)
			seen |= hasPrice
		case "image":
			l.Image, err = d.Str()
			seen |= hasImage
		case "quantity":
			l.Quantity, err = decodeQuantity(d)
			seen |= hasQuantity
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return Line{}, err
	}

	if seen != hasAll {
		return Line{}, errors.New("missing required field")
	}
	if err := validateProduct(Product{ID: l.ID, Name: l.Name, Price: l.UnitPrice, Image: l.Image}); err != nil {
		return Line{}, err
	}
	return l, nil
}

// decodeID accepts string ids and the numeric ids written by older catalog
// revisions.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		if !n.IsInt() {
			return "", errors.Errorf("non-integer numeric id %s", n)
		}
		return n.String(), nil
	default:
		return "", errors.Errorf("unexpected %s", d.Next())
	}
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	default:
		return decimal.Decimal{}, errors.Errorf("unexpected %s", d.Next())
	}
	return decimal.NewFromString(raw)
}

func decodeQuantity(d *jx.Decoder) (int, error) {
	if d.Next() != jx.Number {
		return 0, errors.Errorf("unexpected %s", d.Next())
	}
	q, err := d.Int()
	if err != nil {
		return 0, err
	}
	if q < 1 {
		return 0, errors.Errorf("quantity %d below 1", q)
	}
	return min(q, MaxQuantity), nil
}
