package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/gemlane/storefront-bff/api/middleware"
	"github.com/gemlane/storefront-bff/internal/cart"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCartService struct {
	view     cart.View
	err      error
	lastCall string
	lastItem cart.Item
	session  cart.Session
}

func (s *recordingCartService) Fetch(_ context.Context, session cart.Session) (cart.View, error) {
	s.lastCall, s.session = "fetch", session
	return s.view, s.err
}

func (s *recordingCartService) Add(_ context.Context, session cart.Session, item cart.Item) (cart.View, error) {
	s.lastCall, s.session, s.lastItem = "add", session, item
	return s.view, s.err
}

func (s *recordingCartService) SetQuantity(_ context.Context, session cart.Session, productID string, quantity int) (cart.View, error) {
	s.lastCall, s.session = "set_quantity", session
	s.lastItem = cart.Item{ProductID: productID, Quantity: quantity}
	return s.view, s.err
}

func (s *recordingCartService) Remove(_ context.Context, session cart.Session, productID string) (cart.View, error) {
	s.lastCall, s.session = "remove", session
	s.lastItem = cart.Item{ProductID: productID}
	return s.view, s.err
}

func (s *recordingCartService) Clear(_ context.Context, session cart.Session) (cart.View, error) {
	s.lastCall, s.session = "clear", session
	return s.view, s.err
}

func guestRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithCartToken(req.Context(), "guest-abc"))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCartFetchReturnsSnapshot(t *testing.T) {
	svc := &recordingCartService{view: cart.View{Snapshot: cart.Snapshot{
		Items: []cart.Item{{ProductID: "ring-01", Quantity: 2, UnitPrice: 500}},
	}}}

	rec := httptest.NewRecorder()
	CartFetch(svc, nil)(rec, guestRequest(http.MethodGet, "/api/v1/cart", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fetch", svc.lastCall)
	assert.Equal(t, "guest-abc", svc.session.CartToken)
	assert.Contains(t, rec.Body.String(), "ring-01")
}

func TestCartFetchSurfacesWarnings(t *testing.T) {
	svc := &recordingCartService{view: cart.View{
		Snapshot: cart.Snapshot{},
		Warnings: []cart.Warning{{Code: pkgerrors.CodeCartCorruption, Message: "entry dropped"}},
	}}

	rec := httptest.NewRecorder()
	CartFetch(svc, nil)(rec, guestRequest(http.MethodGet, "/api/v1/cart", ""))

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Warnings []cart.Warning `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Warnings, 1)
	assert.Equal(t, pkgerrors.CodeCartCorruption, envelope.Warnings[0].Code)
}

func TestCartAdd(t *testing.T) {
	svc := &recordingCartService{}

	body := `{"productId":"ring-01","quantity":2,"unitPriceMinorUnits":500,"name":"Gold Ring"}`
	rec := httptest.NewRecorder()
	CartAdd(svc, nil)(rec, guestRequest(http.MethodPost, "/api/v1/cart/items", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "add", svc.lastCall)
	assert.Equal(t, "ring-01", svc.lastItem.ProductID)
	assert.Equal(t, 2, svc.lastItem.Quantity)
	assert.EqualValues(t, 500, svc.lastItem.UnitPrice)
}

func TestCartAddRejectsBadBody(t *testing.T) {
	cases := map[string]string{
		"missing product":   `{"quantity":2}`,
		"zero quantity":     `{"productId":"ring-01","quantity":0}`,
		"negative quantity": `{"productId":"ring-01","quantity":-1}`,
		"unknown field":     `{"productId":"ring-01","quantity":1,"color":"gold"}`,
		"not json":          `{nope`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &recordingCartService{}
			rec := httptest.NewRecorder()
			CartAdd(svc, nil)(rec, guestRequest(http.MethodPost, "/api/v1/cart/items", body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.lastCall, "service must not be called")
		})
	}
}

func TestCartSetQuantity(t *testing.T) {
	svc := &recordingCartService{}

	req := guestRequest(http.MethodPut, "/api/v1/cart/items/ring-01", `{"quantity":5}`)
	req = withURLParam(req, "productId", "ring-01")
	rec := httptest.NewRecorder()
	CartSetQuantity(svc, nil)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "set_quantity", svc.lastCall)
	assert.Equal(t, "ring-01", svc.lastItem.ProductID)
	assert.Equal(t, 5, svc.lastItem.Quantity)
}

func TestCartRemove(t *testing.T) {
	svc := &recordingCartService{}

	req := guestRequest(http.MethodDelete, "/api/v1/cart/items/ring-01", "")
	req = withURLParam(req, "productId", "ring-01")
	rec := httptest.NewRecorder()
	CartRemove(svc, nil)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remove", svc.lastCall)
	assert.Equal(t, "ring-01", svc.lastItem.ProductID)
}

func TestCartErrorsMapToStatus(t *testing.T) {
	svc := &recordingCartService{err: pkgerrors.New(pkgerrors.CodeSessionExpired, "commerce session expired")}

	rec := httptest.NewRecorder()
	CartFetch(svc, nil)(rec, guestRequest(http.MethodGet, "/api/v1/cart", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESSION_EXPIRED")
}
