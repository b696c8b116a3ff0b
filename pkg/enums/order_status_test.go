package enums

import "testing"

func TestOrderStatusTerminal(t *testing.T) {
	if OrderStatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	for _, s := range []OrderStatus{OrderStatusApproved, OrderStatusRejected, OrderStatusApprovedModified} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestParseOrderStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseOrderStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	parsed, err := ParseOrderStatus("approved_modified")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != OrderStatusApprovedModified {
		t.Fatalf("unexpected value %s", parsed)
	}
}

func TestParseOrderTypeRejectsUnknown(t *testing.T) {
	if _, err := ParseOrderType("transfer"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
