// Package money implements integer arithmetic on amounts denominated in
// the smallest currency unit (cents). Amounts are never negative and
// never fractional.
package money

import (
	"fmt"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/shopspring/decimal"
)

// Cents is an amount in minor units.
type Cents int64

// Add returns a + b.
func Add(a, b Cents) Cents {
	guardNonNegative("add", a)
	guardNonNegative("add", b)
	return a + b
}

// Subtract returns a - b. A result below zero is an invariant violation:
// callers cap amounts before subtracting, so underflow means a bug
// upstream and is not recovered here.
func Subtract(a, b Cents) Cents {
	guardNonNegative("subtract", a)
	guardNonNegative("subtract", b)
	if b > a {
		panic(pkgerrors.New(pkgerrors.CodeInvariant, fmt.Sprintf("money underflow: %d - %d", a, b)))
	}
	return a - b
}

// MultiplyByQuantity returns unitPrice * quantity.
func MultiplyByQuantity(unitPrice Cents, quantity int) Cents {
	guardNonNegative("multiply", unitPrice)
	if quantity < 0 {
		panic(pkgerrors.New(pkgerrors.CodeInvariant, fmt.Sprintf("negative quantity %d", quantity)))
	}
	return unitPrice * Cents(quantity)
}

// PercentageOf returns percent% of amount, rounded half-to-even so that
// repeated percentage splits do not drift.
func PercentageOf(amount Cents, percent float64) Cents {
	guardNonNegative("percentage", amount)
	if percent < 0 {
		panic(pkgerrors.New(pkgerrors.CodeInvariant, fmt.Sprintf("negative percent %f", percent)))
	}
	result := decimal.NewFromInt(int64(amount)).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		RoundBank(0)
	return Cents(result.IntPart())
}

// CapAt returns amount limited to max. Used to bound discounts before
// subtraction so totals can never go negative.
func CapAt(amount, max Cents) Cents {
	guardNonNegative("cap", amount)
	guardNonNegative("cap", max)
	if amount > max {
		return max
	}
	return amount
}

func guardNonNegative(op string, v Cents) {
	if v < 0 {
		panic(pkgerrors.New(pkgerrors.CodeInvariant, fmt.Sprintf("money %s: negative amount %d", op, v)))
	}
}
