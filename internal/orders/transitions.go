package orders

import (
	"strings"

	"shoptrack/internal/domain"
)

// Allowed coarse-status transitions for staff changes. Terminal statuses
// accept nothing further; same-status writes are idempotent no-ops.
var statusTransitions = map[string]map[string]struct{}{
	domain.StatusPending: {
		domain.StatusInProgress: {},
		domain.StatusCompleted:  {},
		domain.StatusCancelled:  {},
	},
	domain.StatusInProgress: {
		domain.StatusCompleted: {},
		domain.StatusCancelled: {},
	},
	domain.StatusCompleted: {},
	domain.StatusCancelled: {},
}

// CanTransition reports whether staff may move an order from one status to
// another. Unknown current statuses accept any known target so that rows
// written by older tooling stay editable.
func CanTransition(from, to string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if _, known := statusTransitions[to]; !known {
		return false
	}
	if from == to {
		return true
	}
	allowed, ok := statusTransitions[from]
	if !ok {
		return true
	}
	_, ok = allowed[to]
	return ok
}

// ValidStage reports whether a stage value is acceptable for a staff
// change. Stages stay free-form upstream, only empty values are refused.
func ValidStage(stage string) bool {
	return strings.TrimSpace(stage) != ""
}
