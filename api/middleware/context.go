package middleware

import (
	"context"

	"github.com/gemlane/storefront-bff/pkg/commerce"
)

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxEmail      contextKey = "email"
	ctxCredential contextKey = "credential"
	ctxCartToken  contextKey = "cart_token"
	ctxGuest      contextKey = "guest"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// CredentialFromContext returns the bearer credential forwarded to the
// commerce API. Empty for guest requests.
func CredentialFromContext(ctx context.Context) commerce.Credential {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCredential).(commerce.Credential); ok {
		return v
	}
	return ""
}

// CartTokenFromContext returns the token identifying this shopper's
// cart: the user id for signed-in shoppers, the guest token otherwise.
func CartTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartToken).(string); ok {
		return v
	}
	return ""
}

func IsGuestFromContext(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	if v, ok := ctx.Value(ctxGuest).(bool); ok {
		return v
	}
	return true
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithCartToken injects the cart token into the context.
func WithCartToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartToken, token)
}

// WithEmail injects the shopper email into the context.
func WithEmail(ctx context.Context, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxEmail, email)
}

// WithCredential injects the commerce credential into the context.
func WithCredential(ctx context.Context, cred commerce.Credential) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCredential, cred)
}
