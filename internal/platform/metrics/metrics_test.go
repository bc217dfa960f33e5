package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(429, 20*time.Millisecond)
	c.Record(503, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap.RequestsTotal != 3 || snap.ClientErrorsTotal != 1 || snap.ErrorsTotal != 1 || snap.RateLimitedTotal != 1 {
		t.Fatalf("unexpected counters %+v", snap)
	}
	if snap.AvgDurationMs != 20 {
		t.Fatalf("expected 20ms average, got %v", snap.AvgDurationMs)
	}
}

func TestCollectorNotifications(t *testing.T) {
	c := New()
	c.RecordNotification("ticket_created", nil)
	c.RecordNotification("ticket_created", errors.New("down"))
	c.RecordNotification("account_approved", nil)

	snap := c.Snapshot()
	if got := snap.Notifications["ticket_created"]; got.Sent != 1 || got.Failed != 1 {
		t.Fatalf("unexpected ticket counts %+v", got)
	}
	if got := snap.Notifications["account_approved"]; got.Sent != 1 {
		t.Fatalf("unexpected approval counts %+v", got)
	}
}
