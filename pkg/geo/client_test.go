package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/us/10001", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"post code":"10001","places":[{"place name":"New York","state":"New York","state abbreviation":"NY"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	places, err := client.Lookup(context.Background(), "US", "10001")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "New York", places[0].City)
	assert.Equal(t, "New York", places[0].State)
}

func TestLookupNotFoundIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "us", "99999")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.False(t, pkgerrors.IsRetryable(err), "no-match is terminal, not retryable")
}

func TestLookupServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "us", "10001")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeTransient, typed.Code())
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestLookupConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "us", "10001")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeTransient, typed.Code())
}

func TestLookupValidatesInput(t *testing.T) {
	client, err := NewClient()
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "", "10001")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = client.Lookup(context.Background(), "us", "  ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
