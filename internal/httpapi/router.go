package httpapi

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/rs/cors"
)

func (m *Middleware) base() alice.Chain {
	return alice.New(m.recoverPanic, m.requestID, m.secureHeaders, m.logRequest)
}

func corsWrapper() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
}

// TrackingRouter exposes the buyer-facing surface.
func TrackingRouter(h *Handler, m *Middleware) http.Handler {
	base := m.base()
	authed := base.Append(m.auth)
	optional := base.Append(m.optionalAuth)

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/orders/{order_id}/tracking", authed.ThenFunc(h.GetTracking))
	mux.Handle("GET /api/v1/orders", authed.ThenFunc(h.ListOrders))
	mux.Handle("POST /api/v1/tracking/lookup", base.ThenFunc(h.PublicLookup))
	mux.Handle("GET /api/v1/tracking/orders/{order_id}/stream", optional.ThenFunc(h.StreamTracking))
	return corsWrapper().Handler(mux)
}

// StaffRouter exposes the stage/status mutation surface.
func StaffRouter(h *Handler, m *Middleware) http.Handler {
	staff := m.base().Append(m.auth, m.staffOnly)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/orders/{order_id}/stage", staff.ThenFunc(h.ChangeStage))
	mux.Handle("POST /api/v1/orders/{order_id}/status", staff.ThenFunc(h.ChangeStatus))
	return corsWrapper().Handler(mux)
}
