package domain

import "time"

// Activity is one normalized, displayable feed entry derived from the raw
// event sources of a single order snapshot.
type Activity struct {
	Code string     `json:"code"`
	Text string     `json:"text"`
	At   *time.Time `json:"at,omitempty"`
	Icon string     `json:"icon"`
}
