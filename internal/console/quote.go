package console

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/order"
)

// quoteRequest is the body of POST /api/orders/quote.
type quoteRequest struct {
	Items    []order.LineInput
	Discount *order.Discount
}

// decodeMoney accepts a JSON number or a numeric string.
func decodeMoney(d *jx.Decoder) (decimal.Decimal, error) {
	var s string
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		s = v
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		s = n.String()
	default:
		return decimal.Zero, badRequest("money must be a number or a numeric string")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, badRequest("invalid amount %q", s)
	}
	return v, nil
}

func decodeLine(d *jx.Decoder) (order.LineInput, error) {
	var l order.LineInput
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "productId":
			l.ProductID, err = d.Int64()
		case "productName":
			l.ProductName, err = d.Str()
		case "quantity":
			l.Quantity, err = d.Int()
		case "unitPrice":
			l.UnitPrice, err = decodeMoney(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return l, err
}

func decodeDiscount(d *jx.Decoder) (*order.Discount, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var (
		disc    order.Discount
		rawType string
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "amount":
			disc.Amount, err = decodeMoney(d)
		case "type":
			rawType, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if disc.Type, err = order.ParseDiscountType(rawType); err != nil {
		return nil, err
	}
	return &disc, nil
}

func decodeQuote(d *jx.Decoder) (quoteRequest, error) {
	var req quoteRequest
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeLine(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, l)
				return nil
			})
		case "discount":
			disc, err := decodeDiscount(d)
			req.Discount = disc
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		if errors.Is(err, errBadRequest) {
			return quoteRequest{}, err
		}
		return quoteRequest{}, badRequest("decode quote: %v", err)
	}
	return req, nil
}
