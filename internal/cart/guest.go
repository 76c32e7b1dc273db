package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/metrics"
	pkgredis "github.com/gemlane/storefront-bff/pkg/redis"
)

var errGuestStoreRequired = errors.New("guest cart store is required")

type guestStore interface {
	StoreGuestCart(ctx context.Context, cartToken, payload string, ttl time.Duration) error
	GetGuestCart(ctx context.Context, cartToken string) (string, error)
	DeleteGuestCart(ctx context.Context, cartToken string) error
}

// GuestRepository persists guest carts as JSON snapshots keyed by a
// client-held cart token. Every save rewrites the canonical array shape
// and resets the expiry window.
type GuestRepository struct {
	store   guestStore
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
}

// NewGuestRepository wires the repository. Snapshots expire after ttl of
// inactivity (default seven days).
func NewGuestRepository(store guestStore, ttl time.Duration, logg *logger.Logger, m *metrics.StorefrontMetrics) (*GuestRepository, error) {
	if store == nil {
		return nil, errGuestStoreRequired
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &GuestRepository{store: store, ttl: ttl, logg: logg, metrics: m}, nil
}

// Load reads the guest cart for the token. A missing or expired snapshot
// is an empty cart; a corrupt one is repaired entry by entry and the
// damage reported as warnings, never as an error.
func (r *GuestRepository) Load(ctx context.Context, cartToken string) ([]Item, []Warning, error) {
	payload, err := r.store.GetGuestCart(ctx, cartToken)
	if err != nil {
		if errors.Is(err, pkgredis.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}

	items, warnings := Normalize([]byte(payload))
	if len(warnings) > 0 {
		r.metrics.IncCartCorruption()
		if r.logg != nil {
			r.logg.Warn(r.logg.WithCartToken(ctx, cartToken), "guest cart snapshot required repair on load")
		}
	}
	return items, warnings, nil
}

// Save writes the snapshot in the canonical shape and resets the TTL.
func (r *GuestRepository) Save(ctx context.Context, cartToken string, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode guest cart")
	}
	if err := r.store.StoreGuestCart(ctx, cartToken, string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist guest cart")
	}
	return nil
}

// Delete drops the snapshot, e.g. after the guest cart is merged into an
// authenticated session.
func (r *GuestRepository) Delete(ctx context.Context, cartToken string) error {
	if err := r.store.DeleteGuestCart(ctx, cartToken); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete guest cart")
	}
	return nil
}
