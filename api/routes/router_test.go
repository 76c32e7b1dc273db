package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gemlane/storefront-bff/internal/address"
	"github.com/gemlane/storefront-bff/internal/cart"
	"github.com/gemlane/storefront-bff/internal/checkout"
	"github.com/gemlane/storefront-bff/pkg/commerce"
	"github.com/gemlane/storefront-bff/pkg/config"
	"github.com/gemlane/storefront-bff/pkg/geo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCartService struct {
	view cart.View
}

func (s *stubCartService) Fetch(context.Context, cart.Session) (cart.View, error) { return s.view, nil }
func (s *stubCartService) Add(_ context.Context, _ cart.Session, _ cart.Item) (cart.View, error) {
	return s.view, nil
}
func (s *stubCartService) SetQuantity(context.Context, cart.Session, string, int) (cart.View, error) {
	return s.view, nil
}
func (s *stubCartService) Remove(context.Context, cart.Session, string) (cart.View, error) {
	return s.view, nil
}
func (s *stubCartService) Clear(context.Context, cart.Session) (cart.View, error) {
	return s.view, nil
}

type stubCreator struct{}

func (stubCreator) CreateCheckoutSession(context.Context, commerce.Credential, commerce.CheckoutSessionRequest) (*commerce.CheckoutSessionResponse, error) {
	return &commerce.CheckoutSessionResponse{SessionID: "cs_001"}, nil
}

type stubLocker struct{}

func (stubLocker) AcquireCheckoutLock(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}
func (stubLocker) ReleaseCheckoutLock(context.Context, string) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "test-secret", Issuer: "gemlane-auth"}
	cfg.GuestCart = config.GuestCartConfig{TTL: 7 * 24 * time.Hour, CookieName: "sf_guest_cart"}

	geoClient, err := geo.NewClient()
	require.NoError(t, err)
	resolver, err := address.NewResolver(geoClient, nil, nil)
	require.NoError(t, err)

	manager, err := checkout.NewManager(stubCreator{}, stubLocker{}, nil, nil, time.Minute, time.Minute)
	require.NoError(t, err)

	return NewRouter(cfg, nil, nil, nil, resolver, &stubCartService{}, manager, prometheus.NewRegistry())
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Storefront-Env"))
	assert.Contains(t, rec.Body.String(), "live")
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuestCanFetchCart(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Guest-Cart-Token"), "guest token minted on first contact")
}

func TestShippingOptionsArePublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipping-options", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "standard")
	assert.Contains(t, rec.Body.String(), "express")
}

func TestCheckoutRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
