package address

import (
	"context"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup serves scripted places and can hold individual responses
// until released, to simulate slow upstream replies.
type fakeLookup struct {
	mu      sync.Mutex
	places  map[string][]geo.Place
	errs    map[string]error
	holds   map[string]chan struct{}
	lookups []string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		places: map[string][]geo.Place{},
		errs:   map[string]error{},
		holds:  map[string]chan struct{}{},
	}
}

func (f *fakeLookup) Lookup(ctx context.Context, country, postal string) ([]geo.Place, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, postal)
	hold := f.holds[postal]
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[postal]; err != nil {
		return nil, err
	}
	return f.places[postal], nil
}

func newTestResolver(t *testing.T, client *fakeLookup) *Resolver {
	t.Helper()
	resolver, err := NewResolver(client, nil, nil, WithDebounce(5*time.Millisecond))
	require.NoError(t, err)
	return resolver
}

func TestSubmitResolvesAfterDebounce(t *testing.T) {
	client := newFakeLookup()
	client.places["10001"] = []geo.Place{{City: "New York", State: "New York"}}
	resolver := newTestResolver(t, client)

	resolver.Submit("us", "10001")

	require.Eventually(t, func() bool {
		_, ok := resolver.Current()
		return ok
	}, time.Second, time.Millisecond)

	resolved, _ := resolver.Current()
	assert.Equal(t, "New York", resolved.City)
	assert.Equal(t, "10001", resolved.PostalCode)
}

func TestShortInputNeverTriggersLookup(t *testing.T) {
	client := newFakeLookup()
	resolver := newTestResolver(t, client)

	resolver.Submit("us", "10")
	time.Sleep(30 * time.Millisecond)

	assert.Empty(t, client.lookups)
	_, ok := resolver.Current()
	assert.False(t, ok)
}

func TestRapidTypingCoalescesToLastInput(t *testing.T) {
	client := newFakeLookup()
	client.places["10001"] = []geo.Place{{City: "New York", State: "New York"}}
	resolver := newTestResolver(t, client)

	// Keystrokes land well inside the debounce window.
	resolver.Submit("us", "100")
	resolver.Submit("us", "1000")
	resolver.Submit("us", "10001")

	require.Eventually(t, func() bool {
		_, ok := resolver.Current()
		return ok
	}, time.Second, time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, []string{"10001"}, client.lookups, "only the settled input is looked up")
}

func TestStaleResponseIsSuppressed(t *testing.T) {
	client := newFakeLookup()
	client.places["1000"] = []geo.Place{{City: "Brussels", State: "Brussels Capital"}}
	client.places["10001"] = []geo.Place{{City: "New York", State: "New York"}}

	// Hold the reply for the older input until the newer one resolved.
	release := make(chan struct{})
	client.holds["1000"] = release

	resolver := newTestResolver(t, client)

	resolver.Submit("us", "1000")

	// Wait for the first lookup to be in flight, then supersede it.
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.lookups) == 1
	}, time.Second, time.Millisecond)

	resolver.Submit("us", "10001")
	require.Eventually(t, func() bool {
		resolved, ok := resolver.Current()
		return ok && resolved.PostalCode == "10001"
	}, time.Second, time.Millisecond)

	// Now let the stale reply land; it must not overwrite the result.
	close(release)
	time.Sleep(20 * time.Millisecond)

	resolved, ok := resolver.Current()
	require.True(t, ok)
	assert.Equal(t, "10001", resolved.PostalCode)
	assert.Equal(t, "New York", resolved.City)
}

func TestNoMatchClearsResolution(t *testing.T) {
	client := newFakeLookup()
	client.places["10001"] = []geo.Place{{City: "New York", State: "New York"}}
	client.errs["99999"] = pkgerrors.New(pkgerrors.CodeNotFound, "no locality found")
	resolver := newTestResolver(t, client)

	resolver.Submit("us", "10001")
	require.Eventually(t, func() bool {
		_, ok := resolver.Current()
		return ok
	}, time.Second, time.Millisecond)

	resolver.Submit("us", "99999")
	require.Eventually(t, func() bool {
		_, ok := resolver.Current()
		return !ok
	}, time.Second, time.Millisecond)
}

func TestTransientFailureKeepsPriorResolution(t *testing.T) {
	client := newFakeLookup()
	client.places["10001"] = []geo.Place{{City: "New York", State: "New York"}}
	client.errs["10002"] = pkgerrors.New(pkgerrors.CodeTransient, "upstream unavailable")
	resolver := newTestResolver(t, client)

	resolver.Submit("us", "10001")
	require.Eventually(t, func() bool {
		_, ok := resolver.Current()
		return ok
	}, time.Second, time.Millisecond)

	resolver.Submit("us", "10002")
	time.Sleep(30 * time.Millisecond)

	resolved, ok := resolver.Current()
	require.True(t, ok, "prior resolution survives a transient failure")
	assert.Equal(t, "10001", resolved.PostalCode)
}

func TestResolveNow(t *testing.T) {
	client := newFakeLookup()
	client.places["10001"] = []geo.Place{{City: "New York", State: "New York"}}
	resolver := newTestResolver(t, client)

	resolved, err := resolver.ResolveNow(context.Background(), "us", "10001")
	require.NoError(t, err)
	assert.Equal(t, "New York", resolved.City)

	_, err = resolver.ResolveNow(context.Background(), "us", "10")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestResetClearsState(t *testing.T) {
	client := newFakeLookup()
	client.places["10001"] = []geo.Place{{City: "New York", State: "New York"}}
	resolver := newTestResolver(t, client)

	resolver.Submit("us", "10001")
	require.Eventually(t, func() bool {
		_, ok := resolver.Current()
		return ok
	}, time.Second, time.Millisecond)

	resolver.Reset()
	_, ok := resolver.Current()
	assert.False(t, ok)
}
