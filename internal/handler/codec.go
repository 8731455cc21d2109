package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
)

const maxBodyBytes = 1 << 16

// requestError reports a body the API cannot interpret.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func isBadRequest(err error) bool {
	var rerr *requestError
	return errors.As(err, &rerr)
}

func readBody(r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(data), nil
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeSnapshot(f *cart.Formatter, snap cart.Snapshot) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range snap.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
						e.Field("image", func(e *jx.Encoder) { e.Str(l.Image) })
						e.Field("unitPrice", func(e *jx.Encoder) { encodeMoney(e, l.UnitPrice) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, l.Subtotal()) })
						e.Field("subtotalFormatted", func(e *jx.Encoder) { e.Str(f.Money(l.Subtotal())) })
					})
				}
			})
		})
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(snap.ItemCount) })
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, snap.Total) })
		e.Field("totalFormatted", func(e *jx.Encoder) { e.Str(f.Money(snap.Total)) })
		if snap.PersistErr != nil {
			e.Field("notice", func(e *jx.Encoder) { e.Str(Notice) })
		}
	})
	return e.Bytes()
}

func (h *Handler) encodeProduct(e *jx.Encoder, f *cart.Formatter, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, p.Price) })
		e.Field("priceFormatted", func(e *jx.Encoder) { e.Str(f.Money(p.Price)) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.cfg.ImageBaseURL + p.Image) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("subcategory", func(e *jx.Encoder) { e.Str(p.Subcategory) })
	})
}

// decodeAddItem reads {"id": "..."}; numeric ids are accepted as well.
func decodeAddItem(d *jx.Decoder) (string, error) {
	var id string
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "id" {
			return d.Skip()
		}
		switch d.Next() {
		case jx.String:
			s, err := d.Str()
			id = s
			return err
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return err
			}
			id = n.String()
			return nil
		default:
			return badRequest("id must be a string")
		}
	})
	if err != nil {
		if isBadRequest(err) {
			return "", err
		}
		return "", badRequest("malformed body: %v", err)
	}
	if id == "" {
		return "", badRequest("id is required")
	}
	return id, nil
}

var maxCount = decimal.NewFromInt(cart.MaxQuantity)

// decodeCount reads a JSON number in any notation ("3", "3.7", "1e3") as an
// integer truncated toward zero and saturated at ±cart.MaxQuantity.
func decodeCount(d *jx.Decoder) (int, error) {
	n, err := d.Num()
	if err != nil {
		return 0, err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, badRequest("invalid number %q", n.String())
	}
	v = decimal.Min(decimal.Max(v.Truncate(0), maxCount.Neg()), maxCount)
	return int(v.IntPart()), nil
}

// quantityUpdate is either an absolute quantity or a relative delta.
type quantityUpdate struct {
	quantity    int
	hasQuantity bool
	delta       int
	hasDelta    bool
}

// decodeQuantityUpdate reads {"quantity": n|"n"} or {"delta": n}. Quantities
// given as text are coerced like a form field.
func decodeQuantityUpdate(d *jx.Decoder) (quantityUpdate, error) {
	var u quantityUpdate
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "quantity":
			u.hasQuantity = true
			switch d.Next() {
			case jx.String:
				s, err := d.Str()
				u.quantity = cart.ParseQuantity(s)
				return err
			case jx.Number:
				v, err := decodeCount(d)
				u.quantity = v
				return err
			default:
				return badRequest("quantity must be a number or string")
			}
		case "delta":
			u.hasDelta = true
			if d.Next() != jx.Number {
				return badRequest("delta must be a number")
			}
			v, err := decodeCount(d)
			u.delta = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		if isBadRequest(err) {
			return u, err
		}
		return u, badRequest("malformed body: %v", err)
	}
	if u.hasQuantity == u.hasDelta {
		return u, badRequest("exactly one of quantity or delta is required")
	}
	return u, nil
}
