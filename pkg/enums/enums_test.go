package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus(" Pending ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusPending {
		t.Fatalf("expected pending got %s", status)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventOrderPlaced.IsValid() || OutboxEventType("nope").IsValid() {
		t.Fatal("event type validity mismatch")
	}
	if _, err := ParseOutboxAggregateType("order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatal("expected unknown event type to fail")
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() {
		t.Fatal("expected dlq reason to be valid")
	}
}
