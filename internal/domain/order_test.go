package domain

import "testing"

func TestDisplayCodePicksFirstAlias(t *testing.T) {
	o := Order{ID: "uuid-1", Code: "C-9", OrderNumber: "ORD_1"}
	if got := o.DisplayCode(); got != "ORD_1" {
		t.Fatalf("expected order_number to win, got %q", got)
	}
	o = Order{ID: "uuid-1", Reference: "R-5"}
	if got := o.DisplayCode(); got != "R-5" {
		t.Fatalf("expected reference fallback, got %q", got)
	}
	o = Order{ID: "uuid-1"}
	if got := o.DisplayCode(); got != "uuid-1" {
		t.Fatalf("expected id fallback, got %q", got)
	}
	if got := (Order{}).DisplayCode(); got != "" {
		t.Fatalf("expected empty display code, got %q", got)
	}
}

func TestFound(t *testing.T) {
	if (Order{}).Found() {
		t.Fatal("zero-value order must not count as found")
	}
	if !(Order{ID: "o1"}).Found() {
		t.Fatal("order with id must count as found")
	}
}

func TestCanonicalStatus(t *testing.T) {
	o := Order{Status: "  In_Progress "}
	if got := o.CanonicalStatus(); got != "in_progress" {
		t.Fatalf("expected canonical status, got %q", got)
	}
}
