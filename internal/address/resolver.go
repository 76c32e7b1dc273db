// Package address turns partial postal-code input into a resolved
// city/state suggestion. Input arrives keystroke by keystroke, so
// lookups are debounced and only the newest request may publish its
// result.
package address

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/geo"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/metrics"
)

const (
	defaultDebounce  = 500 * time.Millisecond
	defaultMinLength = 3
	defaultTimeout   = 10 * time.Second
)

var errLookupClientRequired = errors.New("lookup client is required")

type lookupClient interface {
	Lookup(ctx context.Context, country, postal string) ([]geo.Place, error)
}

// Resolved is a postal code with its looked-up locality.
type Resolved struct {
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Resolver debounces postal-code lookups. Each Submit supersedes the
// previous one: a response belonging to an older submission is dropped
// even if it arrives after the newer one resolved.
type Resolver struct {
	client    lookupClient
	logg      *logger.Logger
	metrics   *metrics.StorefrontMetrics
	debounce  time.Duration
	minLength int
	timeout   time.Duration

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	current    Resolved
	resolved   bool
}

// ResolverOption configures optional resolver behavior.
type ResolverOption func(*Resolver)

// WithDebounce overrides the settle window between keystrokes.
func WithDebounce(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithMinLength overrides the minimum postal length that triggers a lookup.
func WithMinLength(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.minLength = n
		}
	}
}

// WithLookupTimeout bounds each lookup call.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver builds a resolver around the postal lookup client.
func NewResolver(client lookupClient, logg *logger.Logger, m *metrics.StorefrontMetrics, opts ...ResolverOption) (*Resolver, error) {
	if client == nil {
		return nil, errLookupClientRequired
	}
	r := &Resolver{
		client:    client,
		logg:      logg,
		metrics:   m,
		debounce:  defaultDebounce,
		minLength: defaultMinLength,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Submit records new postal input. Input shorter than the minimum
// length cancels any pending lookup and clears the resolved address;
// anything longer schedules a lookup after the debounce window. Each
// call invalidates all earlier submissions.
func (r *Resolver) Submit(country, postal string) {
	postal = strings.TrimSpace(postal)
	country = strings.TrimSpace(country)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}

	if len(postal) < r.minLength {
		r.resolved = false
		r.current = Resolved{}
		return
	}

	generation := r.generation
	r.timer = time.AfterFunc(r.debounce, func() {
		r.lookup(generation, country, postal)
	})
}

func (r *Resolver) lookup(generation uint64, country, postal string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	places, err := r.client.Lookup(ctx, country, postal)

	r.mu.Lock()
	defer r.mu.Unlock()
	if generation != r.generation {
		// A newer submission superseded this one while it was in flight.
		return
	}

	switch {
	case err == nil && len(places) > 0:
		r.current = Resolved{
			PostalCode: postal,
			Country:    country,
			City:       places[0].City,
			State:      places[0].State,
		}
		r.resolved = true
		r.metrics.IncLookup("resolved")
	case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
		// No match is terminal for this input; keep typing.
		r.resolved = false
		r.current = Resolved{}
		r.metrics.IncLookup("not_found")
	default:
		// Transient failure: keep whatever was resolved before, the
		// next submission retries naturally.
		r.metrics.IncLookup("failed")
		if r.logg != nil {
			r.logg.Warn(ctx, "postal lookup failed")
		}
	}
}

// Current returns the latest applied resolution, if any.
func (r *Resolver) Current() (Resolved, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.resolved
}

// Reset cancels pending lookups and clears the resolved address.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.resolved = false
	r.current = Resolved{}
}

// ResolveNow performs a synchronous lookup, bypassing the debounce. It
// shares the minimum-length gate and outcome accounting with Submit.
func (r *Resolver) ResolveNow(ctx context.Context, country, postal string) (Resolved, error) {
	postal = strings.TrimSpace(postal)
	country = strings.TrimSpace(country)
	if len(postal) < r.minLength {
		return Resolved{}, pkgerrors.New(pkgerrors.CodeValidation, "postal code too short to resolve")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	places, err := r.client.Lookup(lookupCtx, country, postal)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			r.metrics.IncLookup("not_found")
		} else {
			r.metrics.IncLookup("failed")
		}
		return Resolved{}, err
	}
	if len(places) == 0 {
		r.metrics.IncLookup("not_found")
		return Resolved{}, pkgerrors.New(pkgerrors.CodeNotFound, "no locality found for postal code")
	}

	r.metrics.IncLookup("resolved")
	return Resolved{
		PostalCode: postal,
		Country:    country,
		City:       places[0].City,
		State:      places[0].State,
	}, nil
}
