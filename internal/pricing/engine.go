// Package pricing computes order totals. It is pure: no I/O, no clock,
// no state. All amounts are integer minor units.
package pricing

import (
	"github.com/gemlane/storefront-bff/internal/cart"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/money"
)

// Discount reduces the order total. Flat amounts are minor units;
// percentages apply to the subtotal with half-to-even rounding. A zero
// Discount is valid and means no reduction.
type Discount struct {
	Flat    money.Cents `json:"flatMinorUnits,omitempty"`
	Percent float64     `json:"percent,omitempty"`
}

// Quote is the priced view of a cart. Total is never negative: the
// discount is capped at subtotal plus shipping before subtraction.
type Quote struct {
	Subtotal money.Cents    `json:"subtotalMinorUnits"`
	Shipping money.Cents    `json:"shippingMinorUnits"`
	Discount money.Cents    `json:"discountMinorUnits"`
	Total    money.Cents    `json:"totalMinorUnits"`
	Method   ShippingOption `json:"shippingOption"`
	Currency string         `json:"currency,omitempty"`
}

// Compute prices the snapshot with the given shipping method and
// discount. The same inputs always produce the same quote.
func Compute(snapshot cart.Snapshot, shipping ShippingOption, discount Discount) (Quote, error) {
	if discount.Flat < 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	if discount.Percent < 0 || discount.Percent > 100 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}

	subtotal := snapshot.Subtotal()

	reduction := discount.Flat
	if discount.Percent > 0 {
		reduction = money.Add(reduction, money.PercentageOf(subtotal, discount.Percent))
	}

	gross := money.Add(subtotal, shipping.Price)
	applied := money.CapAt(reduction, gross)

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping.Price,
		Discount: applied,
		Total:    money.Subtract(gross, applied),
		Method:   shipping,
		Currency: snapshot.Currency,
	}, nil
}

// ComputeDefault prices the snapshot with the default shipping method
// and no discount.
func ComputeDefault(snapshot cart.Snapshot) (Quote, error) {
	return Compute(snapshot, DefaultShipping(), Discount{})
}
