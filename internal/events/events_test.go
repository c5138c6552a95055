package events

import (
	"testing"
	"time"
)

func TestAlarmEvent_RoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	e := NewAlarmEvent("alarm_A_u@x_09:00:00", "A", "u@x", "09:00:00", "09:00:00", true, "UTC", now)

	encoded := e.String()
	got, err := ParseAlarmEvent(encoded)
	if err != nil {
		t.Fatalf("ParseAlarmEvent: %v", err)
	}
	if got.AlarmID != e.AlarmID || got.FireID != e.FireID || got.CodeID != e.CodeID {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, e)
	}
	if !got.TriggeredAt.Equal(e.TriggeredAt) {
		t.Errorf("TriggeredAt = %v, want %v", got.TriggeredAt, e.TriggeredAt)
	}
	if got.IsRecurring != e.IsRecurring {
		t.Errorf("IsRecurring = %v, want %v", got.IsRecurring, e.IsRecurring)
	}
}

func TestAlarmEvent_FireIDUnique(t *testing.T) {
	now := time.Now()
	e1 := NewAlarmEvent("alarm_A_u@x_09:00:00", "A", "u@x", "09:00:00", "09:00:00", true, "UTC", now)
	e2 := NewAlarmEvent("alarm_A_u@x_09:00:00", "A", "u@x", "09:00:00", "09:00:00", true, "UTC", now)
	if e1.FireID == e2.FireID {
		t.Error("expected distinct FireID per firing")
	}
	if e1.AlarmID != e2.AlarmID {
		t.Error("expected stable AlarmID across firings")
	}
}

func TestEmailRequest_RoundTrip(t *testing.T) {
	r := EmailRequest{
		ToEmail:     "u@x",
		CodeID:      "A",
		Description: "Alarm code A has been triggered",
		AlarmTime:   "09:00:00",
		Timezone:    "UTC",
	}
	encoded := r.String()
	got, err := ParseEmailRequest(encoded)
	if err != nil {
		t.Fatalf("ParseEmailRequest: %v", err)
	}
	if got != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
	}
}
