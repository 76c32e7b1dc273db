package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gemlane/storefront-bff/api/responses"
	pkgAuth "github.com/gemlane/storefront-bff/pkg/auth"
	"github.com/gemlane/storefront-bff/pkg/commerce"
	"github.com/gemlane/storefront-bff/pkg/config"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/logger"
)

// Auth validates the bearer token, seeds the request context with the
// shopper's identity, and keeps the raw token around as the credential
// forwarded to the commerce API.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			ctx, err := seedIdentity(r.Context(), cfg, logg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth seeds identity when a bearer token is present but lets
// anonymous requests through as guests. An invalid token is still
// rejected: silently downgrading a signed-in shopper to a guest would
// split their cart.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := seedIdentity(r.Context(), cfg, logg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

func seedIdentity(ctx context.Context, cfg config.JWTConfig, logg *logger.Logger, token string) (context.Context, error) {
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return ctx, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	userID := claims.UserID.String()
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxEmail, claims.Email)
	ctx = context.WithValue(ctx, ctxCredential, commerce.Credential(token))
	ctx = context.WithValue(ctx, ctxGuest, false)
	// A signed-in shopper's cart follows the account, not the browser.
	ctx = context.WithValue(ctx, ctxCartToken, userID)

	if logg != nil {
		ctx = logg.WithUserID(ctx, userID)
	}
	return ctx, nil
}
