package progress

import (
	"strings"

	"shoptrack/internal/domain"
)

// Stage labels recognized by the resolver. Upstream sends free-form
// strings; anything outside these sets counts as "no progress".
const (
	StageCreated   = "created"
	StageVerified  = "verified"
	StagePackaging = "packaging"
	StagePacking   = "packing"
	StageRoad      = "road"
	StageOnTheRoad = "ontheroad"
	StageShipped   = "shipped"
	StageLastMile  = "lastmile"
	StageDelivered = "delivered"
	StageCompleted = "completed"
)

var terminalStages = map[string]struct{}{
	StageDelivered: {},
	StageCompleted: {},
	StageLastMile:  {},
}

var transitStages = map[string]struct{}{
	StageRoad:      {},
	StageOnTheRoad: {},
	StageShipped:   {},
}

var prepStages = map[string]struct{}{
	StagePackaging: {},
	StagePacking:   {},
	StageCreated:   {},
	StageVerified:  {},
}

var displaySteps = [...]string{"Placed", "Packaging", "On the road", "Delivered"}

// Steps returns the ordered display steps of the progress bar.
func Steps() []string {
	out := make([]string, len(displaySteps))
	copy(out, displaySteps[:])
	return out
}

// Resolve maps a (stage, status) pair to a progress index in [0, steps-1].
//
// Status is business-authoritative and wins over stage: a cancelled order
// still tagged "packaging" must not look like it is progressing, and a
// completed one is forced terminal. Total over all inputs; the result is
// clamped so a caller-supplied step count can never produce an index
// outside the bar.
func Resolve(stage, status string, steps int) int {
	if steps < 1 {
		steps = 1
	}
	stage = strings.ToLower(strings.TrimSpace(stage))
	status = strings.ToLower(strings.TrimSpace(status))
	last := steps - 1

	idx := 0
	switch {
	case status == domain.StatusCancelled:
		idx = 0
	case status == domain.StatusCompleted:
		idx = last
	case contains(terminalStages, stage):
		idx = last
	case contains(transitStages, stage) || status == domain.StatusInProgress:
		idx = last - 1
	case contains(prepStages, stage) || status == domain.StatusPending:
		idx = 1
	}
	return clamp(idx, 0, last)
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
