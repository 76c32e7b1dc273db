package controllers

import (
	"net/http"

	"github.com/gemlane/storefront-bff/api/responses"
	"github.com/gemlane/storefront-bff/api/validators"
	"github.com/gemlane/storefront-bff/internal/address"
	"github.com/gemlane/storefront-bff/pkg/logger"
)

// AddressResolve turns a postal code into a city/state suggestion. The
// storefront calls this as the shopper types; debouncing happens client
// side, the server-side minimum-length gate still applies.
func AddressResolve(resolver *address.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postal, err := validators.RequireQueryString(r, "postal")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		country := validators.QueryString(r, "country", "us")

		resolved, err := resolver.ResolveNow(r.Context(), country, postal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}
