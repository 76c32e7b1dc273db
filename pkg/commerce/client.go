package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
)

const requestBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("commerce base url is required")

// Credential is the bearer token attached to authenticated commerce API
// calls. It is injected per call; the client never reads it ambiently.
type Credential string

// Client wraps the remote commerce API that owns the server-side cart
// and creates payment sessions.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each commerce API request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the commerce API client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// RemoteItem mirrors one cart line as the commerce API returns it.
type RemoteItem struct {
	ProductID          string `json:"productId"`
	Quantity           int    `json:"quantity"`
	UnitPriceMinorUnit int64  `json:"unitPriceMinorUnits"`
	Name               string `json:"name,omitempty"`
	SKU                string `json:"sku,omitempty"`
}

// RemoteCart is the server-authoritative cart snapshot.
type RemoteCart struct {
	Items    []RemoteItem `json:"items"`
	Currency string       `json:"currency"`
}

type itemMutation struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

// FetchCart loads the server-side cart for the credential's session.
func (c *Client) FetchCart(ctx context.Context, cred Credential) (*RemoteCart, error) {
	return c.cartCall(ctx, cred, http.MethodGet, "/cart", nil)
}

// AddItem appends quantity of a product to the server-side cart.
func (c *Client) AddItem(ctx context.Context, cred Credential, productID string, quantity int) (*RemoteCart, error) {
	return c.cartCall(ctx, cred, http.MethodPost, "/cart/add", itemMutation{ProductID: productID, Quantity: quantity})
}

// UpdateItem overwrites the quantity of a product in the server-side cart.
func (c *Client) UpdateItem(ctx context.Context, cred Credential, productID string, quantity int) (*RemoteCart, error) {
	return c.cartCall(ctx, cred, http.MethodPut, "/cart/update", itemMutation{ProductID: productID, Quantity: quantity})
}

// RemoveItem deletes a product from the server-side cart.
func (c *Client) RemoveItem(ctx context.Context, cred Credential, productID string) (*RemoteCart, error) {
	return c.cartCall(ctx, cred, http.MethodDelete, "/cart/remove", itemMutation{ProductID: productID})
}

func (c *Client) cartCall(ctx context.Context, cred Credential, method, path string, payload any) (*RemoteCart, error) {
	resp, err := c.do(ctx, cred, method, path, payload, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var cart RemoteCart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "decode cart response")
	}
	return &cart, nil
}

// SessionLineItem is one priced line sent to payment-session creation.
type SessionLineItem struct {
	ProductID          string `json:"productId"`
	Quantity           int    `json:"quantity"`
	UnitPriceMinorUnit int64  `json:"unitPriceMinorUnits"`
}

// SessionAddress is the shipping address sent to payment-session creation.
type SessionAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// CheckoutSessionRequest is the payload for payment-session creation.
// IdempotencyToken is regenerated per user-initiated attempt; the
// commerce API deduplicates replays of the same token.
type CheckoutSessionRequest struct {
	LineItems        []SessionLineItem `json:"lineItems"`
	ShippingMethod   string            `json:"shippingMethod"`
	ShippingAddress  SessionAddress    `json:"shippingAddress"`
	UserID           string            `json:"userId"`
	Email            string            `json:"email"`
	IdempotencyToken string            `json:"-"`
}

// CheckoutSessionResponse carries the processor session handle used for
// the client-side redirect.
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateCheckoutSession asks the commerce API to open a payment session.
func (c *Client) CreateCheckoutSession(ctx context.Context, cred Credential, req CheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	if len(req.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line items are required")
	}

	resp, err := c.do(ctx, cred, http.MethodPost, "/payment/create-checkout-session", req, req.IdempotencyToken)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var session CheckoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "decode checkout session response")
	}
	if strings.TrimSpace(session.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce api returned empty session id")
	}
	return &session, nil
}

// Ping verifies the commerce API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, "", http.MethodGet, "/health", nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusInternalServerError {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("commerce api unhealthy: status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) do(ctx context.Context, cred Credential, method, path string, payload any, idempotencyToken string) (*http.Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal commerce request")
		}
		body = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if _, err := url.Parse(endpoint); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commerce url")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commerce request")
	}

	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if cred != "" {
		httpReq.Header.Set("Authorization", "Bearer "+string(cred))
	}
	if idempotencyToken != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "execute commerce request")
	}
	return resp, nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeSessionExpired, "commerce session expired")
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "commerce resource not found")
	case resp.StatusCode >= http.StatusInternalServerError:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeTransient, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "commerce request failed")
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeValidation, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "commerce rejected request")
	}
	return nil
}
