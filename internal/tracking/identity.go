package tracking

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"shoptrack/internal/domain"
)

// ErrUnavailable is the only error surfaced to callers when no order
// context could be established. Transport details never cross this
// boundary.
var ErrUnavailable = errors.New("unable to load this order")

// PrivateResult mirrors the tri-state shape of the authenticated lookup.
type PrivateResult struct {
	Order   domain.Order
	Loading bool
	Err     error
}

// PrivateSource is the authenticated lookup capability of the data layer.
type PrivateSource interface {
	FetchPrivate(ctx context.Context, orderID string) PrivateResult
}

// PublicSource is the one-shot public lookup keyed by billing email.
type PublicSource interface {
	FetchPublic(ctx context.Context, orderID, email string) (domain.Order, error)
}

// Private fetch phases. The fallback decision reads these, never raw
// booleans.
const (
	phaseIdle = iota // no private identity attached, fetch never ran
	phaseLoading
	phaseResolved
	phaseUnauthorized
	phaseError
)

// Snapshot is what the resolver exposes to the rest of the engine. Order
// is a value, never nil, so downstream pure functions stay total.
type Snapshot struct {
	Order   domain.Order
	Loading bool
	Err     error
}

// IdentityResolver decides which identity context may see an order: the
// authenticated session if it resolves, otherwise a single public
// (orderID, email) fallback per parameter pair.
type IdentityResolver struct {
	private PrivateSource // nil for anonymous callers
	public  PublicSource

	mu        sync.Mutex
	orderID   string
	email     string
	attempted bool // fallback guard, re-armed on parameter change
	fallback  domain.Order
}

func NewIdentityResolver(private PrivateSource, public PublicSource) *IdentityResolver {
	return &IdentityResolver{private: private, public: public}
}

// SetParams updates the (orderID, email) pair. Any change re-arms the
// fallback guard and drops the cached fallback order.
func (r *IdentityResolver) SetParams(orderID, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.orderID == orderID && r.email == email {
		return
	}
	r.orderID = orderID
	r.email = email
	r.attempted = false
	r.fallback = domain.Order{}
}

// HasOrderID reports whether polling makes sense at all.
func (r *IdentityResolver) HasOrderID() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderID != ""
}

// Resolve recomputes the snapshot. Safe to call repeatedly; the fallback
// fires at most once per (orderID, email) pair, and only when the private
// fetch is unauthorized or was never attached.
func (r *IdentityResolver) Resolve(ctx context.Context) Snapshot {
	r.mu.Lock()
	orderID, email := r.orderID, r.email
	r.mu.Unlock()
	if orderID == "" {
		return Snapshot{}
	}

	phase := phaseIdle
	var priv PrivateResult
	if r.private != nil {
		priv = r.private.FetchPrivate(ctx, orderID)
		switch {
		case priv.Loading:
			phase = phaseLoading
		case priv.Err == nil && priv.Order.Found():
			phase = phaseResolved
		case isUnauthorized(priv.Err):
			phase = phaseUnauthorized
		default:
			phase = phaseError
		}
	}

	switch phase {
	case phaseResolved:
		return Snapshot{Order: priv.Order}
	case phaseLoading:
		// A fallback must not fire while the private fetch is in flight.
		return Snapshot{Order: r.cachedFallback(), Loading: true}
	}

	if email != "" && (phase == phaseIdle || phase == phaseUnauthorized) {
		r.tryFallback(ctx, orderID, email)
	}

	if fb := r.cachedFallback(); fb.Found() {
		return Snapshot{Order: fb}
	}
	return Snapshot{Err: ErrUnavailable}
}

// tryFallback spends the one-shot guard before the network call so that a
// re-poll during a slow lookup cannot double-fire.
func (r *IdentityResolver) tryFallback(ctx context.Context, orderID, email string) {
	r.mu.Lock()
	armed := !r.attempted && r.orderID == orderID && r.email == email
	if armed {
		r.attempted = true
	}
	r.mu.Unlock()
	if !armed || r.public == nil {
		return
	}

	order, err := r.public.FetchPublic(ctx, orderID, email)
	if err != nil {
		// Best-effort: the failure surfaces only as "no order context".
		return
	}
	r.mu.Lock()
	if r.orderID == orderID && r.email == email {
		r.fallback = order
	}
	r.mu.Unlock()
}

func (r *IdentityResolver) cachedFallback() domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallback
}

type statusCoder interface {
	HTTPStatus() int
}

func isUnauthorized(err error) bool {
	var sc statusCoder
	if err != nil && errors.As(err, &sc) {
		code := sc.HTTPStatus()
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	return false
}
