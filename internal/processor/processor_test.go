package processor

import (
	"context"
	"testing"
	"time"

	"github.com/cloud-nimbus/chronoguard/internal/alarm"
	"github.com/cloud-nimbus/chronoguard/internal/bus"
	"github.com/cloud-nimbus/chronoguard/internal/events"
	"github.com/cloud-nimbus/chronoguard/internal/store"
)

func TestProcessor_EnrichesAndDeletesOneShot(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	st.SetDescription("A", "widget restock")
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := st.Insert(ctx, mustAlarm(t, "A", "u@x", "09:00:00", false)); err != nil {
		t.Fatalf("seed Insert: %v", err)
	}

	b := bus.NewMemoryBus()
	p := New(st, b, nil)

	var emailReqs []string
	cancel, _ := b.Subscribe(ctx, events.TopicEmailRequests, func(payload string) {
		emailReqs = append(emailReqs, payload)
	})
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	ev := events.NewAlarmEvent("alarm_A_u@x_09:00:00", "A", "u@x", "09:00:00", "09:00:00", false, "UTC", now)
	if err := b.Publish(ctx, events.TopicAlarmEvents, ev.String()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(emailReqs) != 1 {
		t.Fatalf("expected one EmailRequest, got %d", len(emailReqs))
	}
	got, err := events.ParseEmailRequest(emailReqs[0])
	if err != nil {
		t.Fatalf("ParseEmailRequest: %v", err)
	}
	if got.Description != "widget restock" {
		t.Errorf("Description = %q, want widget restock", got.Description)
	}

	rows, err := st.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected one-shot row deleted, got %d rows", len(rows))
	}
	if p.Processed() != 1 {
		t.Errorf("Processed() = %d, want 1", p.Processed())
	}
}

func TestProcessor_MissingDescriptionUsesSynthetic(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	b := bus.NewMemoryBus()
	p := New(st, b, nil)

	var emailReqs []string
	cancel, _ := b.Subscribe(ctx, events.TopicEmailRequests, func(payload string) { emailReqs = append(emailReqs, payload) })
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	ev := events.NewAlarmEvent("alarm_Z_u@x_09:00:00", "Z", "u@x", "09:00:00", "09:00:00", true, "UTC", time.Now())
	_ = b.Publish(ctx, events.TopicAlarmEvents, ev.String())

	if len(emailReqs) != 1 {
		t.Fatalf("expected one EmailRequest, got %d", len(emailReqs))
	}
	got, _ := events.ParseEmailRequest(emailReqs[0])
	want := "Alarm code Z has been triggered"
	if got.Description != want {
		t.Errorf("Description = %q, want %q", got.Description, want)
	}
}

func TestProcessor_AtLeastOnceDeliveryDoesNotPanic(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.Insert(ctx, mustAlarm(t, "A", "u@x", "09:00:00", false)); err != nil {
		t.Fatalf("seed Insert: %v", err)
	}
	b := bus.NewMemoryBus()
	p := New(st, b, nil)

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	ev := events.NewAlarmEvent("alarm_A_u@x_09:00:00", "A", "u@x", "09:00:00", "09:00:00", false, "UTC", time.Now())
	_ = b.Publish(ctx, events.TopicAlarmEvents, ev.String())
	_ = b.Publish(ctx, events.TopicAlarmEvents, ev.String()) // redelivery

	if p.Processed() != 2 {
		t.Errorf("Processed() = %d, want 2 (at-least-once delivery processes both)", p.Processed())
	}
}

func mustAlarm(t *testing.T, codeID, email, localTime string, recurring bool) alarm.Alarm {
	t.Helper()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a, err := alarm.Normalize(alarm.Request{
		CodeID: codeID, Email: email, LocalTime: localTime,
		IsRecurring: recurring, Timezone: "UTC",
	}, "UTC", now, now)
	if err != nil {
		t.Fatalf("alarm.Normalize: %v", err)
	}
	return a
}
