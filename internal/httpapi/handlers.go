package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"shoptrack/internal/config"
	"shoptrack/internal/domain"
	"shoptrack/internal/logger"
	"shoptrack/internal/orders"
	"shoptrack/internal/progress"
	"shoptrack/internal/tracking"
)

type Handler struct {
	svc orders.ServiceInterface
	cfg config.App
	lg  *logger.Logger
}

func NewHandler(svc orders.ServiceInterface, cfg config.App, lg *logger.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, lg: lg}
}

type trackingResponse struct {
	tracking.ViewModel
	PollSeconds int `json:"poll_seconds"`
}

// GetTracking serves the authenticated tracking view for one order.
func (h *Handler) GetTracking(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("order_id")
	resolver := newResolver(h.svc, CustomerIDFrom(r.Context()))
	// An email query param arms the public fallback for sessions that do
	// not own the order (shared tracking links).
	resolver.SetParams(orderID, r.URL.Query().Get("email"))

	vm := tracking.Compose(resolver.Resolve(r.Context()))
	if vm.Error != "" && vm.OrderID == "" {
		writeProblem(w, http.StatusNotFound, "not_found", vm.Error)
		return
	}
	writeJSON(w, http.StatusOK, trackingResponse{ViewModel: vm, PollSeconds: h.cfg.Polling.TrackingSeconds})
}

type lookupRequest struct {
	OrderID string `json:"order_id"`
	Email   string `json:"email"`
}

// PublicLookup serves the anonymous email-verified tracking view.
func (h *Handler) PublicLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", "invalid JSON body")
		return
	}
	if req.OrderID == "" || req.Email == "" {
		writeProblem(w, http.StatusBadRequest, "validation_failed", "order_id and email are required")
		return
	}
	resolver := newResolver(h.svc, "")
	resolver.SetParams(req.OrderID, req.Email)

	vm := tracking.Compose(resolver.Resolve(r.Context()))
	if vm.Error != "" && vm.OrderID == "" {
		writeProblem(w, http.StatusNotFound, "not_found", vm.Error)
		return
	}
	writeJSON(w, http.StatusOK, trackingResponse{ViewModel: vm, PollSeconds: h.cfg.Polling.TrackingSeconds})
}

type orderSummary struct {
	OrderID       string     `json:"order_id"`
	DisplayCode   string     `json:"display_code"`
	Status        string     `json:"status"`
	Stage         string     `json:"stage,omitempty"`
	ProgressIndex int        `json:"progress_index"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// ListOrders serves the authenticated order-history list.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 20)
	offset := atoiDefault(r.URL.Query().Get("offset"), 0)

	list, err := h.svc.CustomerOrders(r.Context(), CustomerIDFrom(r.Context()), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	steps := len(progress.Steps())
	summaries := make([]orderSummary, 0, len(list))
	for _, o := range list {
		summaries = append(summaries, orderSummary{
			OrderID:       o.ID,
			DisplayCode:   o.DisplayCode(),
			Status:        o.CanonicalStatus(),
			Stage:         o.Stage,
			ProgressIndex: progress.Resolve(o.Stage, o.Status, steps),
			UpdatedAt:     o.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":       summaries,
		"poll_seconds": h.cfg.Polling.HistorySeconds,
	})
}

type changeRequest struct {
	Stage  string `json:"stage,omitempty"`
	Status string `json:"status,omitempty"`
	Note   string `json:"note,omitempty"`
}

// ChangeStage records a staff stage change.
func (h *Handler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("order_id")
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", "invalid JSON body")
		return
	}
	if err := h.svc.ChangeStage(r.Context(), orderID, req.Stage, req.Note, CustomerIDFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"kind":     domain.ChangeKindStage,
		"value":    req.Stage,
	})
}

// ChangeStatus records a staff status change.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("order_id")
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", "invalid JSON body")
		return
	}
	if err := h.svc.ChangeStatus(r.Context(), orderID, req.Status, req.Note, CustomerIDFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"kind":     domain.ChangeKindStatus,
		"value":    req.Status,
	})
}
