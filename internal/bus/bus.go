// Package bus defines the pub/sub interface connecting the scheduler,
// processor, and notifier, plus a Redis-backed adapter and an in-memory
// fan-out bus for tests.
package bus

import "context"

// EventBus publishes string payloads to named topics and delivers them to
// subscribed handlers. Subscribe returns a cancel func that stops delivery
// to that particular handler; it does not close the topic for other
// subscribers.
type EventBus interface {
	Publish(ctx context.Context, topic, payload string) error
	Subscribe(ctx context.Context, topic string, handler func(payload string)) (cancel func(), err error)
	Close() error
}
