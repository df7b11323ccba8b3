package orders

import "testing"

func TestCanTransition(t *testing.T) {
	if !CanTransition("pending", "in_progress") {
		t.Fatal("expected pending -> in_progress to be allowed")
	}
	if !CanTransition("in_progress", "completed") {
		t.Fatal("expected in_progress -> completed to be allowed")
	}
	if !CanTransition("in_progress", "cancelled") {
		t.Fatal("expected in_progress -> cancelled to be allowed")
	}
	if CanTransition("completed", "pending") {
		t.Fatal("unexpected transition out of terminal status")
	}
	if CanTransition("cancelled", "in_progress") {
		t.Fatal("unexpected transition out of terminal status")
	}
	if !CanTransition("completed", "completed") {
		t.Fatal("same-status write must stay idempotent")
	}
	if CanTransition("pending", "shipped") {
		t.Fatal("unknown target status must be rejected")
	}
	if !CanTransition("legacy_weird", "cancelled") {
		t.Fatal("unknown current status must accept known targets")
	}
	if !CanTransition("Pending", " IN_PROGRESS ") {
		t.Fatal("transition check must canonicalize input")
	}
}

func TestValidStage(t *testing.T) {
	if ValidStage("") || ValidStage("   ") {
		t.Fatal("empty stage must be invalid")
	}
	if !ValidStage("lastmile") {
		t.Fatal("known stage rejected")
	}
	if !ValidStage("warehouse-7") {
		t.Fatal("free-form stage rejected")
	}
}
