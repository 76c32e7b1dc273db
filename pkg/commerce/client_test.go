package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCartAttachesBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(RemoteCart{
			Currency: "USD",
			Items: []RemoteItem{
				{ProductID: "ring-01", Quantity: 2, UnitPriceMinorUnit: 500},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	cart, err := client.FetchCart(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "ring-01", cart.Items[0].ProductID)
	assert.Equal(t, "USD", cart.Currency)
}

func TestUpdateItemSendsMutation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/cart/update", r.URL.Path)

		var body struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ring-01", body.ProductID)
		assert.Equal(t, 3, body.Quantity)

		_ = json.NewEncoder(w).Encode(RemoteCart{Currency: "USD"})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.UpdateItem(context.Background(), "tok", "ring-01", 3)
	require.NoError(t, err)
}

func TestUnauthorizedMapsToSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.FetchCart(context.Background(), "stale")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeSessionExpired, typed.Code())
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.AddItem(context.Background(), "tok", "ring-01", 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeTransient, typed.Code())
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/create-checkout-session", r.URL.Path)
		assert.Equal(t, "attempt-7", r.Header.Get("Idempotency-Key"))

		var body CheckoutSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "express", body.ShippingMethod)
		assert.Equal(t, "buyer@example.com", body.Email)
		require.Len(t, body.LineItems, 1)

		_ = json.NewEncoder(w).Encode(CheckoutSessionResponse{SessionID: "cs_001"})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	session, err := client.CreateCheckoutSession(context.Background(), "tok", CheckoutSessionRequest{
		LineItems:        []SessionLineItem{{ProductID: "ring-01", Quantity: 2, UnitPriceMinorUnit: 500}},
		ShippingMethod:   "express",
		ShippingAddress:  SessionAddress{Street: "1 Main St", City: "New York", State: "NY", PostalCode: "10001", Country: "US"},
		UserID:           "user-1",
		Email:            "buyer@example.com",
		IdempotencyToken: "attempt-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_001", session.SessionID)
}

func TestCreateCheckoutSessionRejectsEmptyLineItems(t *testing.T) {
	client, err := NewClient("https://commerce.example.test")
	require.NoError(t, err)

	_, err = client.CreateCheckoutSession(context.Background(), "tok", CheckoutSessionRequest{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateCheckoutSessionEmptySessionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(CheckoutSessionResponse{SessionID: "  "})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.CreateCheckoutSession(context.Background(), "tok", CheckoutSessionRequest{
		LineItems: []SessionLineItem{{ProductID: "ring-01", Quantity: 1, UnitPriceMinorUnit: 100}},
	})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}
