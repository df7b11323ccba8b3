package httpapi

import (
	"context"

	"shoptrack/internal/domain"
	"shoptrack/internal/orders"
	"shoptrack/internal/tracking"
)

// privateSource adapts the order service to the resolver's authenticated
// lookup. The real call is synchronous, so Loading is always false here;
// the tri-state shape exists for the resolver contract.
type privateSource struct {
	svc        orders.ServiceInterface
	customerID string
}

func (p privateSource) FetchPrivate(ctx context.Context, orderID string) tracking.PrivateResult {
	order, err := p.svc.PrivateOrder(ctx, p.customerID, orderID)
	return tracking.PrivateResult{Order: order, Err: err}
}

type publicSource struct {
	svc orders.ServiceInterface
}

func (p publicSource) FetchPublic(ctx context.Context, orderID, email string) (domain.Order, error) {
	return p.svc.PublicOrder(ctx, orderID, email)
}

// newResolver builds an identity resolver for one request or stream.
// Anonymous callers get no private source at all, which is exactly the
// "private fetch never attached" case of the fallback rule.
func newResolver(svc orders.ServiceInterface, customerID string) *tracking.IdentityResolver {
	var private tracking.PrivateSource
	if customerID != "" {
		private = privateSource{svc: svc, customerID: customerID}
	}
	return tracking.NewIdentityResolver(private, publicSource{svc: svc})
}
