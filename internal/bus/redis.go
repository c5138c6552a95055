package bus

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	cgerrors "github.com/cloud-nimbus/chronoguard/internal/errors"
)

// RedisBus is the EventBus implementation backed by Redis pub/sub.
type RedisBus struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[string]*redis.PubSub // topic -> active subscription, for Close
}

// NewRedisBus connects to the Redis instance at addr and verifies
// connectivity with a PING.
func NewRedisBus(ctx context.Context, addr, password string, db int) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, cgerrors.NewBusUnavailableError("connect", err)
	}
	return &RedisBus{client: client, subs: make(map[string]*redis.PubSub)}, nil
}

// Publish sends payload to topic.
func (b *RedisBus) Publish(ctx context.Context, topic, payload string) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return cgerrors.NewBusUnavailableError(topic, err)
	}
	return nil
}

// Subscribe subscribes to topic and invokes handler for every message
// received until the returned cancel func is called or ctx is done.
func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler func(string)) (func(), error) {
	pubsub := b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, cgerrors.NewBusUnavailableError(topic, err)
	}

	b.mu.Lock()
	b.subs[topic] = pubsub
	b.mu.Unlock()

	ch := pubsub.Channel()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler(msg.Payload)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		close(done)
		pubsub.Close()
	}
	return cancel, nil
}

// Close closes the underlying Redis client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	for _, pubsub := range b.subs {
		pubsub.Close()
	}
	b.mu.Unlock()
	return b.client.Close()
}
