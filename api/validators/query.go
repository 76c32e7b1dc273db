package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
)

// RequireQueryString returns the trimmed query parameter or a
// validation error when absent.
func RequireQueryString(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}

// QueryString returns the trimmed query parameter or the default.
func QueryString(r *http.Request, key, defaultVal string) string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal
	}
	return raw
}
