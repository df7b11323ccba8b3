package domain

import "time"

// Change kinds published by staff mutations.
const (
	ChangeKindStage  = "stage"
	ChangeKindStatus = "status"
)

// ChangeEvent is the message published to the orders_topic exchange when
// staff record a stage or status change.
type ChangeEvent struct {
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	Kind       string    `json:"kind"`
	Value      string    `json:"value"`
	Note       string    `json:"note,omitempty"`
	ChangedBy  string    `json:"changed_by,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
