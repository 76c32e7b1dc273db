package controllers

import (
	"net/http"

	"github.com/gemlane/storefront-bff/api/responses"
	"github.com/gemlane/storefront-bff/api/validators"
	"github.com/gemlane/storefront-bff/internal/cart"
	"github.com/gemlane/storefront-bff/internal/pricing"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/money"
)

type quoteRequest struct {
	ShippingMethod     string  `json:"shippingMethod" validate:"max=50"`
	DiscountMinorUnits int64   `json:"discountMinorUnits" validate:"gte=0"`
	DiscountPercent    float64 `json:"discountPercent" validate:"gte=0,lte=100"`
}

// CartQuote prices the current cart without touching it.
func CartQuote(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipping := pricing.DefaultShipping()
		if req.ShippingMethod != "" {
			option, ok := pricing.ShippingByCode(req.ShippingMethod)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method"))
				return
			}
			shipping = option
		}

		view, err := svc.Fetch(r.Context(), cartSession(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := pricing.Compute(view.Snapshot, shipping, pricing.Discount{
			Flat:    money.Cents(req.DiscountMinorUnits),
			Percent: req.DiscountPercent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if len(view.Warnings) > 0 {
			responses.WriteSuccessWithWarnings(w, quote, view.Warnings)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// ShippingOptions lists the offered delivery methods.
func ShippingOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, pricing.ShippingOptions())
	}
}
