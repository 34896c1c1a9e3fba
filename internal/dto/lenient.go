package dto

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// lineFields is a cart or order line with every field still raw, so that a
// single badly typed value cannot fail the whole request body.
type lineFields struct {
	ID    json.RawMessage `json:"id"`
	Name  json.RawMessage `json:"name"`
	Price json.RawMessage `json:"price"`
	Qty   json.RawMessage `json:"qty"`
	Image json.RawMessage `json:"image"`
}

// UnmarshalJSON coerces each field on its own. A line that is not an object
// decodes to the zero value and is dropped later for its empty id.
func (it *CartItemInput) UnmarshalJSON(data []byte) error {
	var f lineFields
	if err := json.Unmarshal(data, &f); err != nil {
		*it = CartItemInput{}
		return nil
	}
	*it = CartItemInput{
		ID:    looseString(f.ID),
		Name:  looseString(f.Name),
		Price: looseDecimal(f.Price),
		Qty:   looseInt(f.Qty),
		Image: looseString(f.Image),
	}
	return nil
}

func (it *OrderItemInput) UnmarshalJSON(data []byte) error {
	var f lineFields
	if err := json.Unmarshal(data, &f); err != nil {
		*it = OrderItemInput{}
		return nil
	}
	*it = OrderItemInput{
		ID:    looseString(f.ID),
		Name:  looseString(f.Name),
		Price: looseDecimal(f.Price),
		Qty:   looseInt(f.Qty),
	}
	return nil
}

// looseString accepts a JSON string or a number literal; anything else is "".
func looseString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// looseDecimal accepts a number or a numeric string; anything else is zero.
func looseDecimal(raw json.RawMessage) decimal.Decimal {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// looseInt truncates toward zero and saturates at the bounds of int.
func looseInt(raw json.RawMessage) int {
	d := looseDecimal(raw).Truncate(0)
	switch {
	case d.GreaterThan(decimal.NewFromInt(math.MaxInt)):
		return math.MaxInt
	case d.LessThan(decimal.NewFromInt(math.MinInt)):
		return math.MinInt
	}
	return int(d.IntPart())
}
