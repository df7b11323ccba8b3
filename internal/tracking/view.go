package tracking

import (
	"shoptrack/internal/activity"
	"shoptrack/internal/domain"
	"shoptrack/internal/progress"
)

// ViewModel is the renderable snapshot handed to the presentation layer.
type ViewModel struct {
	OrderID       string            `json:"order_id,omitempty"`
	DisplayCode   string            `json:"display_code,omitempty"`
	Status        string            `json:"status,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	ProgressIndex int               `json:"progress_index"`
	Steps         []string          `json:"steps"`
	Activities    []domain.Activity `json:"activities"`
	Loading       bool              `json:"loading,omitempty"`
	Error         string            `json:"error,omitempty"`
}

const unavailableMessage = "Unable to load this order right now."

// Compose wires the resolver snapshot through the two pure functions into
// one view model. Thin by design.
func Compose(snap Snapshot) ViewModel {
	steps := progress.Steps()
	vm := ViewModel{
		Steps:      steps,
		Activities: []domain.Activity{},
		Loading:    snap.Loading,
	}
	if snap.Order.Found() {
		vm.OrderID = snap.Order.ID
		vm.DisplayCode = snap.Order.DisplayCode()
		vm.Status = snap.Order.CanonicalStatus()
		vm.Stage = snap.Order.Stage
		vm.ProgressIndex = progress.Resolve(snap.Order.Stage, snap.Order.Status, len(steps))
		vm.Activities = activity.Build(snap.Order)
		return vm
	}
	if snap.Err != nil && !snap.Loading {
		vm.Error = unavailableMessage
	}
	return vm
}
