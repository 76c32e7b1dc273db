// Package checkout drives the order placement flow: validate
// preconditions, create a payment session upstream, then hand the
// shopper off to the processor redirect.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gemlane/storefront-bff/internal/address"
	"github.com/gemlane/storefront-bff/internal/cart"
	"github.com/gemlane/storefront-bff/internal/pricing"
	"github.com/gemlane/storefront-bff/pkg/commerce"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/metrics"
	"github.com/google/uuid"
)

// State is the checkout lifecycle position. Transitions only move
// forward within one attempt: Idle -> Building -> AwaitingRedirect ->
// Completed or Failed. A failed attempt may start over from Failed.
type State string

const (
	StateIdle             State = "idle"
	StateBuilding         State = "building"
	StateAwaitingRedirect State = "awaiting_redirect"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

var (
	errSessionCreatorRequired = errors.New("checkout session creator is required")
	errLockerRequired         = errors.New("checkout locker is required")
)

type sessionCreator interface {
	CreateCheckoutSession(ctx context.Context, cred commerce.Credential, req commerce.CheckoutSessionRequest) (*commerce.CheckoutSessionResponse, error)
}

type locker interface {
	AcquireCheckoutLock(ctx context.Context, cartToken, token string, ttl time.Duration) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, cartToken string) error
}

// Identity is who is placing the order.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// PlaceOrderInput carries everything an attempt needs. The builder
// validates it; nothing here is trusted to be complete.
type PlaceOrderInput struct {
	Credential commerce.Credential
	Cart       cart.Snapshot
	Quote      pricing.Quote
	Street     string
	Address    address.Resolved
	Identity   Identity
}

// Status is the externally visible attempt state.
type Status struct {
	State     State  `json:"state"`
	SessionID string `json:"sessionId,omitempty"`
}

// Builder runs checkout attempts for one cart. It is safe for
// concurrent use: while an attempt is building, further place-order
// calls are no-ops that report the in-flight state.
type Builder struct {
	gateway sessionCreator
	locks   locker
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics

	cartToken      string
	lockTTL        time.Duration
	sessionTimeout time.Duration

	mu           sync.Mutex
	state        State
	sessionID    string
	attemptToken string
	startedAt    time.Time
}

// NewBuilder wires a builder for one cart token.
func NewBuilder(gateway sessionCreator, locks locker, logg *logger.Logger, m *metrics.StorefrontMetrics, cartToken string, lockTTL, sessionTimeout time.Duration) (*Builder, error) {
	if gateway == nil {
		return nil, errSessionCreatorRequired
	}
	if locks == nil {
		return nil, errLockerRequired
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	if sessionTimeout <= 0 {
		sessionTimeout = 10 * time.Second
	}
	return &Builder{
		gateway:        gateway,
		locks:          locks,
		logg:           logg,
		metrics:        m,
		cartToken:      cartToken,
		lockTTL:        lockTTL,
		sessionTimeout: sessionTimeout,
		state:          StateIdle,
	}, nil
}

// Status reports the current lifecycle position.
func (b *Builder) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{State: b.state, SessionID: b.sessionID}
}

// PlaceOrder starts a checkout attempt. While an attempt is already
// building or awaiting its redirect, the call does nothing and returns
// the in-flight status. Each new attempt carries a fresh idempotency
// token, so a retry after failure is a distinct request upstream.
func (b *Builder) PlaceOrder(ctx context.Context, input PlaceOrderInput) (Status, error) {
	b.mu.Lock()
	switch b.state {
	case StateBuilding, StateAwaitingRedirect:
		status := Status{State: b.state, SessionID: b.sessionID}
		b.mu.Unlock()
		return status, nil
	case StateCompleted:
		status := Status{State: b.state, SessionID: b.sessionID}
		b.mu.Unlock()
		return status, pkgerrors.New(pkgerrors.CodeConflict, "order already completed for this cart")
	}

	if err := validateInput(input); err != nil {
		// A rejected attempt is a failed attempt; status queries see it.
		b.state = StateFailed
		b.sessionID = ""
		status := Status{State: b.state}
		b.mu.Unlock()
		return status, err
	}

	b.state = StateBuilding
	b.sessionID = ""
	b.attemptToken = uuid.NewString()
	b.startedAt = time.Now()
	token := b.attemptToken
	b.mu.Unlock()

	acquired, err := b.locks.AcquireCheckoutLock(ctx, b.cartToken, token, b.lockTTL)
	if err != nil {
		return b.abort(ctx, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock"))
	}
	if !acquired {
		// Another instance is already building for this cart.
		b.mu.Lock()
		b.state = StateIdle
		status := Status{State: StateBuilding}
		b.mu.Unlock()
		return status, nil
	}

	// Session creation carries its own bound, independent of the
	// transport timeout.
	sessionCtx, cancel := context.WithTimeout(ctx, b.sessionTimeout)
	defer cancel()

	session, err := b.gateway.CreateCheckoutSession(sessionCtx, input.Credential, commerce.CheckoutSessionRequest{
		LineItems:        sessionLines(input.Cart),
		ShippingMethod:   input.Quote.Method.Code,
		ShippingAddress:  sessionAddress(input.Street, input.Address),
		UserID:           input.Identity.UserID,
		Email:            input.Identity.Email,
		IdempotencyToken: token,
	})
	if err != nil {
		b.releaseLock(ctx)
		return b.abort(ctx, err)
	}

	b.mu.Lock()
	b.state = StateAwaitingRedirect
	b.sessionID = session.SessionID
	elapsed := time.Since(b.startedAt)
	status := Status{State: b.state, SessionID: b.sessionID}
	b.mu.Unlock()

	b.metrics.ObserveCheckout("awaiting_redirect", elapsed)
	if b.logg != nil {
		b.logg.Info(b.logg.WithCheckoutSession(ctx, session.SessionID), "checkout session created")
	}
	return status, nil
}

// Complete marks the attempt settled after the processor confirmed
// payment. Only valid while awaiting the redirect outcome.
func (b *Builder) Complete(ctx context.Context) (Status, error) {
	b.mu.Lock()
	if b.state != StateAwaitingRedirect {
		state := b.state
		b.mu.Unlock()
		return Status{State: state}, pkgerrors.New(pkgerrors.CodeConflict, "no checkout awaiting completion")
	}
	b.state = StateCompleted
	elapsed := time.Since(b.startedAt)
	status := Status{State: b.state, SessionID: b.sessionID}
	b.mu.Unlock()

	b.releaseLock(ctx)
	b.metrics.ObserveCheckout("completed", elapsed)
	return status, nil
}

// Fail marks the attempt failed, e.g. the shopper abandoned the
// processor page. A new attempt may start afterwards.
func (b *Builder) Fail(ctx context.Context) (Status, error) {
	b.mu.Lock()
	if b.state != StateAwaitingRedirect && b.state != StateBuilding {
		state := b.state
		b.mu.Unlock()
		return Status{State: state}, pkgerrors.New(pkgerrors.CodeConflict, "no checkout in flight to fail")
	}
	b.state = StateFailed
	elapsed := time.Since(b.startedAt)
	status := Status{State: b.state, SessionID: b.sessionID}
	b.mu.Unlock()

	b.releaseLock(ctx)
	b.metrics.ObserveCheckout("failed", elapsed)
	return status, nil
}

func (b *Builder) abort(ctx context.Context, err error) (Status, error) {
	b.mu.Lock()
	b.state = StateFailed
	elapsed := time.Since(b.startedAt)
	status := Status{State: b.state}
	b.mu.Unlock()

	b.metrics.ObserveCheckout("failed", elapsed)
	if b.logg != nil {
		b.logg.Error(ctx, "checkout attempt failed", err)
	}
	return status, err
}

func (b *Builder) releaseLock(ctx context.Context) {
	if err := b.locks.ReleaseCheckoutLock(ctx, b.cartToken); err != nil && b.logg != nil {
		b.logg.Warn(ctx, "failed to release checkout lock; it expires on its own")
	}
}

func validateInput(input PlaceOrderInput) error {
	var missing []string
	if input.Cart.IsEmpty() {
		missing = append(missing, "cart is empty")
	}
	if input.Address.City == "" || input.Address.PostalCode == "" {
		missing = append(missing, "shipping address is not resolved")
	}
	if strings.TrimSpace(input.Street) == "" {
		missing = append(missing, "street address is required")
	}
	if strings.TrimSpace(input.Identity.UserID) == "" || strings.TrimSpace(input.Identity.Email) == "" {
		missing = append(missing, "buyer identity is required")
	}
	if input.Quote.Method.Code == "" {
		missing = append(missing, "shipping method is not selected")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodePrecondition, "checkout preconditions not met").WithDetails(missing)
	}
	return nil
}

func sessionLines(snapshot cart.Snapshot) []commerce.SessionLineItem {
	lines := make([]commerce.SessionLineItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		lines = append(lines, commerce.SessionLineItem{
			ProductID:          item.ProductID,
			Quantity:           item.Quantity,
			UnitPriceMinorUnit: int64(item.UnitPrice),
		})
	}
	return lines
}

func sessionAddress(street string, resolved address.Resolved) commerce.SessionAddress {
	return commerce.SessionAddress{
		Street:     street,
		City:       resolved.City,
		State:      resolved.State,
		PostalCode: resolved.PostalCode,
		Country:    resolved.Country,
	}
}
