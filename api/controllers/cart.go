package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gemlane/storefront-bff/api/middleware"
	"github.com/gemlane/storefront-bff/api/responses"
	"github.com/gemlane/storefront-bff/api/validators"
	"github.com/gemlane/storefront-bff/internal/cart"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/money"
)

type addItemRequest struct {
	ProductID          string `json:"productId" validate:"required"`
	Quantity           int    `json:"quantity" validate:"required,gt=0"`
	UnitPriceMinorUnit int64  `json:"unitPriceMinorUnits" validate:"gte=0"`
	Name               string `json:"name" validate:"max=200"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func cartSession(r *http.Request) cart.Session {
	return cart.Session{
		Credential: middleware.CredentialFromContext(r.Context()),
		CartToken:  middleware.CartTokenFromContext(r.Context()),
	}
}

func writeCartView(w http.ResponseWriter, view cart.View) {
	if len(view.Warnings) > 0 {
		responses.WriteSuccessWithWarnings(w, view.Snapshot, view.Warnings)
		return
	}
	responses.WriteSuccess(w, view.Snapshot)
}

func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Fetch(r.Context(), cartSession(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, view)
	}
}

func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Add(r.Context(), cartSession(r), cart.Item{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: money.Cents(req.UnitPriceMinorUnit),
			Name:      validators.SanitizeString(req.Name, 200),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, view)
	}
}

func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")

		var req setQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetQuantity(r.Context(), cartSession(r), productID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, view)
	}
}

func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")

		view, err := svc.Remove(r.Context(), cartSession(r), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, view)
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Clear(r.Context(), cartSession(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, view)
	}
}
