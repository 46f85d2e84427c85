// Package pricing computes cart subtotals, promo discounts and totals.
//
// Every surface that shows money to a shopper (cart, checkout, order creation)
// goes through Calculate so the numbers agree everywhere.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo rules.
type DiscountType string

const (
	Percentage  DiscountType = "percentage"
	Fixed       DiscountType = "fixed"
	BOGO        DiscountType = "bogo"
	FreeService DiscountType = "free_service"
)

// Valid reports whether t is one of the known discount types.
func (t DiscountType) Valid() bool {
	switch t {
	case Percentage, Fixed, BOGO, FreeService:
		return true
	}
	return false
}

var (
	ErrPromoInactive = errors.New("promo code is no longer active")
	ErrBelowMinimum  = errors.New("cart value is below the promo minimum")
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Item is a single cart line as seen by the calculator.
type Item struct {
	ProductID       string  `json:"product_id"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discount"`
	Quantity        int     `json:"quantity"`
	PromoFree       bool    `json:"is_promo_free,omitempty"`
}

// Promo is the calculator's view of a promo code.
type Promo struct {
	Code          string       `json:"code"`
	Type          DiscountType `json:"discount_type"`
	Value         float64      `json:"discount_value"`
	Active        bool         `json:"is_active"`
	MinCartValue  float64      `json:"min_cart_value,omitempty"`
	FreeProductID string       `json:"free_product_id,omitempty"`
}

// Totals is the result shown to the shopper and stored on orders.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// EffectivePrice is the unit price after the per-item discount. Promo-granted
// free lines are always zero.
func EffectivePrice(it Item) decimal.Decimal {
	if it.PromoFree {
		return decimal.Zero
	}
	price := decimal.NewFromFloat(it.Price)
	if it.DiscountPercent != 0 {
		price = price.Mul(hundred.Sub(decimal.NewFromFloat(it.DiscountPercent))).Div(hundred)
	}
	return price
}

// LineTotal is the effective unit price times quantity.
func LineTotal(it Item) decimal.Decimal {
	return EffectivePrice(it).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Subtotal sums all line totals before any promo discount.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}
	return sum
}

// Validate checks that promo may be applied to a cart whose pre-discount
// subtotal is subtotal.
func Validate(promo *Promo, subtotal decimal.Decimal) error {
	if promo == nil {
		return nil
	}
	if !promo.Active {
		return ErrPromoInactive
	}
	if promo.MinCartValue > 0 {
		min := decimal.NewFromFloat(promo.MinCartValue)
		if subtotal.LessThan(min) {
			return fmt.Errorf("%w: minimum cart value is %s", ErrBelowMinimum, min.StringFixed(2))
		}
	}
	return nil
}

// Discount returns the monetary discount promo grants on items. It does not
// validate the promo; callers go through Calculate for that.
func Discount(items []Item, promo *Promo) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}

	switch promo.Type {
	case Percentage:
		return Subtotal(items).Mul(decimal.NewFromFloat(promo.Value)).Div(hundred)
	case Fixed:
		return decimal.NewFromFloat(promo.Value)
	case BOGO:
		return bogoDiscount(items)
	case FreeService:
		// realised as an injected zero-priced line, not a subtraction
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// bogoDiscount gives half off the first line bought in bulk, otherwise makes
// the cheapest line free. Equal prices resolve to the earliest line in the
// cart because the sort is stable.
func bogoDiscount(items []Item) decimal.Decimal {
	candidates := make([]Item, 0, len(items))
	for _, it := range items {
		if it.PromoFree || it.Quantity <= 0 {
			continue
		}
		candidates = append(candidates, it)
	}

	for _, it := range candidates {
		if it.Quantity >= 2 {
			return LineTotal(it).Mul(half)
		}
	}

	if len(candidates) < 2 {
		return decimal.Zero
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return EffectivePrice(candidates[i]).LessThan(EffectivePrice(candidates[j]))
	})
	return EffectivePrice(candidates[0])
}

// Calculate derives subtotal, discount and total for items with an optional
// promo. When the promo is rejected the returned totals carry no discount and
// the error explains why.
func Calculate(items []Item, promo *Promo) (Totals, error) {
	subtotal := Subtotal(items)

	if err := Validate(promo, subtotal); err != nil {
		return newTotals(subtotal, decimal.Zero), err
	}

	return newTotals(subtotal, Discount(items, promo)), nil
}

// newTotals rounds subtotal and discount to cents before deriving the total,
// so the stored figures always satisfy total = max(0, subtotal - discount).
func newTotals(subtotal, discount decimal.Decimal) Totals {
	subtotal, discount = subtotal.Round(2), discount.Round(2)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}
