package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectDiscount
	EffectFreeItem
)

// Effect is what a reward or coupon grants: a flat discount, a free item,
// or nothing. The zero value is NoEffect. Construct with Discount or
// FreeItem so an Effect is always well formed.
type Effect struct {
	kind   EffectKind
	amount int
	item   string
}

// NoEffect is the absent effect of "Better luck next time".
var NoEffect = Effect{}

func Discount(amount int) (Effect, error) {
	if amount <= 0 {
		return Effect{}, ValidationError{Field: "discount", Message: "discount must be positive"}
	}
	return Effect{kind: EffectDiscount, amount: amount}, nil
}

func FreeItem(name string) (Effect, error) {
	if name == "" {
		return Effect{}, ValidationError{Field: "item", Message: "free item name is required"}
	}
	return Effect{kind: EffectFreeItem, item: name}, nil
}

// MustDiscount and MustFreeItem build static reward tables.
func MustDiscount(amount int) Effect {
	e, err := Discount(amount)
	if err != nil {
		panic(err)
	}
	return e
}

func MustFreeItem(name string) Effect {
	e, err := FreeItem(name)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Effect) Kind() EffectKind { return e.kind }

func (e Effect) IsNone() bool { return e.kind == EffectNone }

// DiscountAmount returns the flat amount for discount effects.
func (e Effect) DiscountAmount() (int, bool) {
	return e.amount, e.kind == EffectDiscount
}

// FreeItemName returns the item for free-item effects.
func (e Effect) FreeItemName() (string, bool) {
	return e.item, e.kind == EffectFreeItem
}

// DiscountFor is the amount this effect takes off subtotal, never more
// than the subtotal itself.
func (e Effect) DiscountFor(subtotal int) int {
	if e.kind != EffectDiscount || subtotal <= 0 {
		return 0
	}
	return min(e.amount, subtotal)
}

func (e Effect) String() string {
	switch e.kind {
	case EffectDiscount:
		return fmt.Sprintf("₹%d off", e.amount)
	case EffectFreeItem:
		return "free " + e.item
	default:
		return "no reward"
	}
}

type effectJSON struct {
	Discount int    `json:"discount,omitempty"`
	Item     string `json:"item,omitempty"`
}

// MarshalJSON encodes {"discount": n}, {"item": name} or null.
func (e Effect) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case EffectDiscount:
		return json.Marshal(effectJSON{Discount: e.amount})
	case EffectFreeItem:
		return json.Marshal(effectJSON{Item: e.item})
	default:
		return []byte("null"), nil
	}
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = NoEffect
		return nil
	}

	var raw effectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode effect: %w", err)
	}

	var (
		parsed Effect
		err    error
	)
	switch {
	case raw.Discount != 0 && raw.Item != "":
		return ValidationError{Field: "effect", Message: "effect must be either discount or item"}
	case raw.Discount != 0:
		parsed, err = Discount(raw.Discount)
	case raw.Item != "":
		parsed, err = FreeItem(raw.Item)
	default:
		parsed = NoEffect
	}
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Reward is one slot on the spin wheel. Weight is its relative
// probability mass.
type Reward struct {
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
	Effect Effect `json:"effect"`
	Weight int    `json:"weight"`
}
