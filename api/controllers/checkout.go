package controllers

import (
	"net/http"

	"github.com/gemlane/storefront-bff/api/middleware"
	"github.com/gemlane/storefront-bff/api/responses"
	"github.com/gemlane/storefront-bff/api/validators"
	"github.com/gemlane/storefront-bff/internal/address"
	"github.com/gemlane/storefront-bff/internal/cart"
	"github.com/gemlane/storefront-bff/internal/checkout"
	"github.com/gemlane/storefront-bff/internal/pricing"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/money"
)

type checkoutRequest struct {
	Street             string  `json:"street" validate:"required,max=300"`
	PostalCode         string  `json:"postalCode" validate:"required,min=3,max=16"`
	Country            string  `json:"country" validate:"required,len=2"`
	ShippingMethod     string  `json:"shippingMethod" validate:"required,max=50"`
	DiscountMinorUnits int64   `json:"discountMinorUnits" validate:"gte=0"`
	DiscountPercent    float64 `json:"discountPercent" validate:"gte=0,lte=100"`
}

// Checkout starts an order attempt: price the cart, resolve the
// shipping address, then open a payment session upstream. The response
// carries the session handle the storefront redirects to.
func Checkout(cartSvc cart.Service, manager *checkout.Manager, resolver *address.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session := cartSession(r)
		view, err := cartSvc.Fetch(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolved, err := resolver.ResolveNow(r.Context(), req.Country, req.PostalCode)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				err = pkgerrors.New(pkgerrors.CodePrecondition, "shipping address could not be resolved")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipping, ok := pricing.ShippingByCode(req.ShippingMethod)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method"))
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

		builder, err := manager.For(session.CartToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := builder.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
			Credential: session.Credential,
			Cart:       view.Snapshot,
			Quote:      quote,
			Street:     validators.SanitizeString(req.Street, 300),
			Address:    resolved,
			Identity: checkout.Identity{
				UserID: middleware.UserIDFromContext(r.Context()),
				Email:  middleware.EmailFromContext(r.Context()),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// CheckoutStatus reports where the current attempt stands.
func CheckoutStatus(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builder, err := manager.For(middleware.CartTokenFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, builder.Status())
	}
}

// CheckoutComplete settles the attempt after the processor confirmed
// payment, then empties the cart.
func CheckoutComplete(cartSvc cart.Service, manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := cartSession(r)
		builder, err := manager.For(session.CartToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := builder.Complete(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := cartSvc.Clear(r.Context(), session); err != nil {
			// The order went through; an unemptied cart is an
			// inconvenience, not a failure.
			if logg != nil {
				logg.Warn(r.Context(), "failed to clear cart after completed checkout")
			}
		}
		manager.Forget(session.CartToken)

		responses.WriteSuccess(w, status)
	}
}

// CheckoutFail records that the shopper abandoned or the processor
// rejected the payment page. The cart stays intact for another try.
func CheckoutFail(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builder, err := manager.For(middleware.CartTokenFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := builder.Fail(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// A settled attempt releases its builder; the next try starts
		// from a fresh one.
		manager.Forget(middleware.CartTokenFromContext(r.Context()))

		responses.WriteSuccess(w, status)
	}
}
