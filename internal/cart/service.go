package cart

import (
	"context"

	"github.com/gemlane/storefront-bff/pkg/commerce"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/logger"
)

// Session identifies whose cart an operation targets. Signed-in
// shoppers carry a commerce credential and their cart lives server-side;
// guests only have a cart token and their cart lives in the snapshot
// store.
type Session struct {
	Credential commerce.Credential
	CartToken  string
}

// IsGuest reports whether the session has no commerce credential.
func (s Session) IsGuest() bool {
	return s.Credential == ""
}

// View is a cart operation result: the cart after the operation plus
// any repair warnings picked up while loading persisted state.
type View struct {
	Snapshot Snapshot  `json:"cart"`
	Warnings []Warning `json:"-"`
}

// Service is the cart surface the API exposes.
type Service interface {
	Fetch(ctx context.Context, session Session) (View, error)
	Add(ctx context.Context, session Session, item Item) (View, error)
	SetQuantity(ctx context.Context, session Session, productID string, quantity int) (View, error)
	Remove(ctx context.Context, session Session, productID string) (View, error)
	Clear(ctx context.Context, session Session) (View, error)
}

// ServiceParams wires the service dependencies.
type ServiceParams struct {
	Gateway gateway
	Guests  *GuestRepository
	Logger  *logger.Logger
}

type service struct {
	gateway gateway
	guests  *GuestRepository
	logg    *logger.Logger
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, errSyncGatewayRequired
	}
	if params.Guests == nil {
		return nil, errGuestStoreRequired
	}
	return &service{
		gateway: params.Gateway,
		guests:  params.Guests,
		logg:    params.Logger,
	}, nil
}

func (s *service) Fetch(ctx context.Context, session Session) (View, error) {
	if session.IsGuest() {
		items, warnings, err := s.guests.Load(ctx, session.CartToken)
		if err != nil {
			return View{}, err
		}
		return View{Snapshot: Snapshot{Items: items}, Warnings: warnings}, nil
	}

	syncer, err := s.syncerFor(ctx, session)
	if err != nil {
		return View{}, err
	}
	return View{Snapshot: syncer.Snapshot()}, nil
}

func (s *service) Add(ctx context.Context, session Session, item Item) (View, error) {
	if item.ProductID == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity <= 0 {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if session.IsGuest() {
		return s.mutateGuest(ctx, session, func(store *Store) {
			for _, existing := range store.Snapshot().Items {
				if existing.ProductID == item.ProductID {
					// Adding an already-carted product stacks quantity.
					item.Quantity += existing.Quantity
					break
				}
			}
			store.Upsert(item)
		})
	}

	syncer, err := s.syncerFor(ctx, session)
	if err != nil {
		return View{}, err
	}
	snapshot, err := syncer.Add(ctx, session.Credential, item)
	return View{Snapshot: snapshot}, err
}

func (s *service) SetQuantity(ctx context.Context, session Session, productID string, quantity int) (View, error) {
	if productID == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if session.IsGuest() {
		return s.mutateGuest(ctx, session, func(store *Store) {
			store.SetQuantity(productID, quantity)
		})
	}

	syncer, err := s.syncerFor(ctx, session)
	if err != nil {
		return View{}, err
	}
	snapshot, err := syncer.SetQuantity(ctx, session.Credential, productID, quantity)
	return View{Snapshot: snapshot}, err
}

func (s *service) Remove(ctx context.Context, session Session, productID string) (View, error) {
	if productID == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if session.IsGuest() {
		return s.mutateGuest(ctx, session, func(store *Store) {
			store.Remove(productID)
		})
	}

	syncer, err := s.syncerFor(ctx, session)
	if err != nil {
		return View{}, err
	}
	snapshot, err := syncer.Remove(ctx, session.Credential, productID)
	return View{Snapshot: snapshot}, err
}

func (s *service) Clear(ctx context.Context, session Session) (View, error) {
	if session.IsGuest() {
		return s.mutateGuest(ctx, session, func(store *Store) {
			store.Clear()
		})
	}

	syncer, err := s.syncerFor(ctx, session)
	if err != nil {
		return View{}, err
	}
	snapshot, err := syncer.Clear(ctx, session.Credential)
	return View{Snapshot: snapshot}, err
}

// syncerFor builds a request-scoped syncer seeded with the current
// server-side cart, so a failed mutation rolls back to server truth.
func (s *service) syncerFor(ctx context.Context, session Session) (*Syncer, error) {
	syncer, err := NewSyncer(NewStore(), s.gateway, s.logg)
	if err != nil {
		return nil, err
	}
	if _, err := syncer.Refresh(ctx, session.Credential); err != nil {
		return nil, err
	}
	return syncer, nil
}

func (s *service) mutateGuest(ctx context.Context, session Session, mutate func(*Store)) (View, error) {
	items, warnings, err := s.guests.Load(ctx, session.CartToken)
	if err != nil {
		return View{}, err
	}

	store := NewStore()
	store.Replace(items, "")
	mutate(store)

	snapshot := store.Snapshot()
	if err := s.guests.Save(ctx, session.CartToken, snapshot.Items); err != nil {
		return View{}, err
	}
	return View{Snapshot: snapshot, Warnings: warnings}, nil
}
