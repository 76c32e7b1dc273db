package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/gemlane/storefront-bff/pkg/config"
	"github.com/gemlane/storefront-bff/pkg/logger"
)

const guestCartHeader = "X-Guest-Cart-Token"

// GuestCart ensures every request has a cart token. Signed-in shoppers
// already carry one (their user id); guests get a token from the cart
// cookie or header, minted on first contact and echoed back so the
// storefront can keep it. The cookie lives as long as the snapshot.
func GuestCart(cfg config.GuestCartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if CartTokenFromContext(ctx) != "" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(guestCartHeader)
			if token == "" {
				if cookie, err := r.Cookie(cfg.CookieName); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				token = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(guestCartHeader, token)

			ctx = context.WithValue(ctx, ctxCartToken, token)
			ctx = context.WithValue(ctx, ctxGuest, true)
			if logg != nil {
				ctx = logg.WithCartToken(ctx, token)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
