package pricing

import (
	"github.com/gemlane/storefront-bff/pkg/money"
)

// ShippingOption is one offered delivery method with a flat rate.
type ShippingOption struct {
	Code         string      `json:"code"`
	Label        string      `json:"label"`
	Price        money.Cents `json:"priceMinorUnits"`
	EstimatedMin int         `json:"estimatedDaysMin"`
	EstimatedMax int         `json:"estimatedDaysMax"`
}

// The catalog is static; rates change with a deploy.
var shippingCatalog = []ShippingOption{
	{Code: "standard", Label: "Standard Shipping", Price: 0, EstimatedMin: 5, EstimatedMax: 8},
	{Code: "express", Label: "Express Shipping", Price: 1500, EstimatedMin: 1, EstimatedMax: 2},
}

// ShippingOptions returns the offered methods, cheapest first.
func ShippingOptions() []ShippingOption {
	return append([]ShippingOption(nil), shippingCatalog...)
}

// ShippingByCode finds an option by its code.
func ShippingByCode(code string) (ShippingOption, bool) {
	for _, option := range shippingCatalog {
		if option.Code == code {
			return option, true
		}
	}
	return ShippingOption{}, false
}

// DefaultShipping is the option applied when the shopper has not picked
// one: the cheapest on offer.
func DefaultShipping() ShippingOption {
	cheapest := shippingCatalog[0]
	for _, option := range shippingCatalog[1:] {
		if option.Price < cheapest.Price {
			cheapest = option
		}
	}
	return cheapest
}
