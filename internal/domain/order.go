package domain

import (
	"strings"
	"time"
)

// Canonical coarse lifecycle statuses. Upstream is case-insensitive,
// everything inside the engine works with the lowercase form.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// TimelineEntry is one structured, authoritative status event.
type TimelineEntry struct {
	Code string     `json:"code"`
	Note string     `json:"note,omitempty"`
	At   *time.Time `json:"at,omitempty"`
}

// Order is a snapshot served by the data layer. The engine never mutates
// it; every poll produces a fresh value. Legacy collections keep their
// loose upstream shape on purpose, field aliases are resolved by the
// activity builder.
type Order struct {
	ID          string `json:"id"`
	Number      string `json:"number,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	Code        string `json:"code,omitempty"`
	Reference   string `json:"reference,omitempty"`

	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Email        string `json:"email,omitempty"`

	Status string `json:"status,omitempty"`
	Stage  string `json:"stage,omitempty"`

	StatusTimeline []TimelineEntry  `json:"status_timeline,omitempty"`
	Activities     []map[string]any `json:"activities,omitempty"`
	Timeline       []map[string]any `json:"timeline,omitempty"`
	History        []map[string]any `json:"history,omitempty"`
	Events         []map[string]any `json:"events,omitempty"`

	TotalAmount float64 `json:"total_amount,omitempty"`

	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// Found reports whether the snapshot carries an actual order.
func (o Order) Found() bool { return o.ID != "" }

// DisplayCode picks the human-facing code from the first populated alias.
func (o Order) DisplayCode() string {
	for _, v := range []string{o.Number, o.OrderNumber, o.Code, o.Reference, o.ID} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// CanonicalStatus returns the lowercase, trimmed status.
func (o Order) CanonicalStatus() string {
	return strings.ToLower(strings.TrimSpace(o.Status))
}
