package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/gemlane/storefront-bff/pkg/commerce"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"go.uber.org/multierr"
)

var (
	errSyncGatewayRequired = errors.New("commerce gateway is required")
	errSyncStoreRequired   = errors.New("cart store is required")
)

type gateway interface {
	FetchCart(ctx context.Context, cred commerce.Credential) (*commerce.RemoteCart, error)
	AddItem(ctx context.Context, cred commerce.Credential, productID string, quantity int) (*commerce.RemoteCart, error)
	UpdateItem(ctx context.Context, cred commerce.Credential, productID string, quantity int) (*commerce.RemoteCart, error)
	RemoveItem(ctx context.Context, cred commerce.Credential, productID string) (*commerce.RemoteCart, error)
}

// Syncer keeps a local cart store consistent with the server-side cart.
// Mutations are applied locally first so the caller sees the change
// immediately, then pushed to the server. The server reply is adopted as
// the new acknowledged state; on failure the store is rolled back to the
// last acknowledged snapshot and the failure is returned.
type Syncer struct {
	mu           sync.Mutex
	store        *Store
	gateway      gateway
	logg         *logger.Logger
	acknowledged Snapshot
}

// NewSyncer wires the coordinator around a store and the commerce gateway.
func NewSyncer(store *Store, gw gateway, logg *logger.Logger) (*Syncer, error) {
	if store == nil {
		return nil, errSyncStoreRequired
	}
	if gw == nil {
		return nil, errSyncGatewayRequired
	}
	return &Syncer{store: store, gateway: gw, logg: logg}, nil
}

// Refresh replaces local state with the server-side cart.
func (s *Syncer) Refresh(ctx context.Context, cred commerce.Credential) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remote, err := s.gateway.FetchCart(ctx, cred)
	if err != nil {
		return s.store.Snapshot(), err
	}
	return s.adoptLocked(remote), nil
}

// Add pushes a new line (or extra quantity) to the server-side cart.
func (s *Syncer) Add(ctx context.Context, cred commerce.Credential, item Item) (Snapshot, error) {
	if item.ProductID == "" {
		return s.store.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity <= 0 {
		return s.store.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Upsert(item)
	return s.pushLocked(ctx, cred, func() (*commerce.RemoteCart, error) {
		return s.gateway.AddItem(ctx, cred, item.ProductID, item.Quantity)
	})
}

// SetQuantity pins a line's quantity on both sides, inserting the line
// when the product is not carted yet. Zero or less removes the line,
// matching Remove.
func (s *Syncer) SetQuantity(ctx context.Context, cred commerce.Credential, productID string, quantity int) (Snapshot, error) {
	if productID == "" {
		return s.store.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return s.Remove(ctx, cred, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.SetQuantity(productID, quantity)
	return s.pushLocked(ctx, cred, func() (*commerce.RemoteCart, error) {
		return s.gateway.UpdateItem(ctx, cred, productID, quantity)
	})
}

// Remove deletes a line on both sides.
func (s *Syncer) Remove(ctx context.Context, cred commerce.Credential, productID string) (Snapshot, error) {
	if productID == "" {
		return s.store.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Remove(productID)
	return s.pushLocked(ctx, cred, func() (*commerce.RemoteCart, error) {
		return s.gateway.RemoveItem(ctx, cred, productID)
	})
}

// Clear removes every line, one server call per line. A failure mid-way
// stops, reconciles against the server, and returns the accumulated
// errors.
func (s *Syncer) Clear(ctx context.Context, cred commerce.Credential) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	for _, item := range s.store.Snapshot().Items {
		remote, err := s.gateway.RemoveItem(ctx, cred, item.ProductID)
		if err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		s.adoptLocked(remote)
	}
	if errs != nil {
		if _, err := s.reconcileLocked(ctx, cred); err != nil {
			errs = multierr.Append(errs, err)
		}
		return s.store.Snapshot(), errs
	}
	s.store.Clear()
	s.acknowledged = s.store.Snapshot()
	return s.acknowledged, nil
}

// Snapshot returns the current local view without touching the server.
func (s *Syncer) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// pushLocked runs the server mutation after the local change has been
// applied. On success the server cart becomes both the local state and
// the acknowledged baseline; on failure the local change is undone.
func (s *Syncer) pushLocked(ctx context.Context, cred commerce.Credential, call func() (*commerce.RemoteCart, error)) (Snapshot, error) {
	remote, err := call()
	if err == nil {
		return s.adoptLocked(remote), nil
	}

	s.store.Replace(s.acknowledged.Items, s.acknowledged.Currency)
	if s.logg != nil {
		s.logg.Warn(ctx, "cart sync failed; rolled back to last acknowledged snapshot")
	}

	// After a terminal rejection the server cart may still have moved;
	// a fresh read beats the cached baseline. Transient failures skip
	// the read since it would hit the same outage.
	if !pkgerrors.IsRetryable(err) {
		if _, reconcileErr := s.reconcileLocked(ctx, cred); reconcileErr != nil {
			err = multierr.Append(err, reconcileErr)
		}
	}
	return s.store.Snapshot(), err
}

func (s *Syncer) reconcileLocked(ctx context.Context, cred commerce.Credential) (Snapshot, error) {
	if cred == "" {
		return s.store.Snapshot(), nil
	}
	remote, err := s.gateway.FetchCart(ctx, cred)
	if err != nil {
		return s.store.Snapshot(), err
	}
	return s.adoptLocked(remote), nil
}

func (s *Syncer) adoptLocked(remote *commerce.RemoteCart) Snapshot {
	currency := ""
	if remote != nil {
		currency = remote.Currency
	}
	s.store.Replace(FromRemote(remote), currency)
	s.acknowledged = s.store.Snapshot()
	return s.acknowledged
}
