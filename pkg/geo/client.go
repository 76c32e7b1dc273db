package geo

import (
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

const (
	defaultBaseURL             = "https://api.zippopotam.us"
	requestBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("geo base url is required")

// Client wraps the postal-code lookup API used for address resolution.
// The upstream contract is GET /{countryCode}/{postalCode} returning a
// list of places or 404 when the code is unknown.
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

// WithBaseURL overrides the configured lookup base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout bounds each lookup request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the postal lookup client.
func NewClient(opts ...Option) (*Client, error) {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.baseURL == "" {
		return nil, errBaseURLRequired
	}

	return client, nil
}

// Place is the normalized city/state pair for a postal code.
type Place struct {
	City  string
	State string
}

// Lookup resolves a (country, postal code) pair into place candidates.
// An unknown code returns a NOT_FOUND error, which is terminal for that
// input; transport failures return TRANSIENT_FAILURE and may be retried.
func (c *Client) Lookup(ctx context.Context, countryCode, postalCode string) ([]Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geo client not configured")
	}
	country := strings.ToLower(strings.TrimSpace(countryCode))
	postal := strings.TrimSpace(postalCode)
	if country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country code is required")
	}
	if postal == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required")
	}

	lookupURL := fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(c.baseURL, "/"),
		url.PathEscape(country),
		url.PathEscape(postal),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build postal lookup request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "execute postal lookup")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no match for postal code %q", postal))
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "postal lookup failed")
	}

	var apiResp struct {
		Places []struct {
			PlaceName string `json:"place name"`
			State     string `json:"state"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "decode postal lookup response")
	}

	if len(apiResp.Places) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no places for postal code %q", postal))
	}

	places := make([]Place, 0, len(apiResp.Places))
	for _, p := range apiResp.Places {
		places = append(places, Place{
			City:  p.PlaceName,
			State: p.State,
		})
	}

	return places, nil
}
