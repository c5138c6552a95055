package bus

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBus()

	var mu sync.Mutex
	var received []string
	cancel, err := b.Subscribe(ctx, "alarm_events", func(payload string) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, payload)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if err := b.Publish(ctx, "alarm_events", "event-1"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != "event-1" {
		t.Errorf("received = %v, want [event-1]", received)
	}
}

func TestMemoryBus_CancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBus()

	count := 0
	cancel, err := b.Subscribe(ctx, "alarm_events", func(string) { count++ })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	if err := b.Publish(ctx, "alarm_events", "event-1"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no delivery after cancel, got count=%d", count)
	}
}

func TestMemoryBus_MultipleSubscribersFanOut(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBus()

	var mu sync.Mutex
	countA, countB := 0, 0
	cancelA, _ := b.Subscribe(ctx, "t", func(string) { mu.Lock(); countA++; mu.Unlock() })
	cancelB, _ := b.Subscribe(ctx, "t", func(string) { mu.Lock(); countB++; mu.Unlock() })
	defer cancelA()
	defer cancelB()

	_ = b.Publish(ctx, "t", "x")

	mu.Lock()
	defer mu.Unlock()
	if countA != 1 || countB != 1 {
		t.Errorf("expected both subscribers to receive, got countA=%d countB=%d", countA, countB)
	}
}
