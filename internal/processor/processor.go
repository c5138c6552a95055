// Package processor consumes alarm_events, enriches each firing with a
// human-readable description, publishes email_requests, and removes
// one-shot rows from the store.
package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	cgerrors "github.com/cloud-nimbus/chronoguard/internal/errors"
	"github.com/cloud-nimbus/chronoguard/internal/events"
	"github.com/cloud-nimbus/chronoguard/internal/telemetry"
)

// descriptionLookupTimeout bounds how long Process waits on the store
// before falling back to the synthetic description.
const descriptionLookupTimeout = 5 * time.Second

// Store is the subset of store.Store the processor needs.
type Store interface {
	GetDescription(ctx context.Context, codeID string) (description string, ok bool, err error)
	Delete(ctx context.Context, codeID, email, localTime string) (int64, error)
}

// Publisher is the subset of bus.EventBus the processor needs.
type Publisher interface {
	Publish(ctx context.Context, topic, payload string) error
}

// Subscriber is the subset of bus.EventBus the processor needs to receive
// alarm_events.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler func(string)) (cancel func(), err error)
}

// Processor wires alarm_events to email_requests.
type Processor struct {
	store Store
	bus   interface {
		Publisher
		Subscriber
	}
	log *zap.Logger

	mu        sync.Mutex
	processed int64

	cancel func()
}

// New constructs a Processor.
func New(st Store, bus interface {
	Publisher
	Subscriber
}, log *zap.Logger) *Processor {
	return &Processor{store: st, bus: bus, log: log}
}

// Start subscribes to alarm_events. Each call adds a subscription: calling
// Start twice without an intervening Stop leaves the earlier subscription
// active, and Stop then cancels only the most recent one.
func (p *Processor) Start(ctx context.Context) error {
	cancel, err := p.bus.Subscribe(ctx, events.TopicAlarmEvents, func(payload string) {
		p.handle(ctx, payload)
	})
	if err != nil {
		return err
	}
	p.cancel = cancel
	return nil
}

// Stop cancels the alarm_events subscription.
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

// handle processes one alarm_events payload. Malformed payloads are
// logged and dropped; at-least-once delivery means a given alarm_id may
// be processed more than once, and that is tolerated rather than guarded
// against. The AlarmEvent's FireID is the key a consumer needing
// exactly-once effects would dedupe on; this processor does not dedupe,
// and the EmailRequest it publishes does not carry the FireID.
func (p *Processor) handle(ctx context.Context, payload string) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.Error("processor: handler panicked", zap.Any("panic", r))
		}
	}()

	ev, err := events.ParseAlarmEvent(payload)
	if err != nil {
		if p.log != nil {
			p.log.Error("processor: malformed alarm_event", zap.Error(err))
		}
		return
	}

	description := p.lookupDescription(ctx, ev.CodeID)

	req := events.EmailRequest{
		ToEmail:     ev.Email,
		CodeID:      ev.CodeID,
		Description: description,
		AlarmTime:   ev.LocalTime,
		Timezone:    ev.Timezone,
	}
	if err := p.bus.Publish(ctx, events.TopicEmailRequests, req.String()); err != nil {
		if p.log != nil {
			p.log.Error("processor: publish email_requests failed", zap.String("alarm_id", ev.AlarmID), zap.Error(err))
		}
		telemetry.RecordOperation(ctx, telemetry.OpEnrich, telemetry.ResultError, telemetry.ComponentProcessor)
		return
	}

	p.mu.Lock()
	p.processed++
	p.mu.Unlock()

	telemetry.RecordOperation(ctx, telemetry.OpEnrich, telemetry.ResultSuccess, telemetry.ComponentProcessor)

	if !ev.IsRecurring {
		p.deleteOneShot(ctx, ev)
	}
}

func (p *Processor) lookupDescription(ctx context.Context, codeID string) string {
	lookupCtx, cancel := context.WithTimeout(ctx, descriptionLookupTimeout)
	defer cancel()

	description, ok, err := p.store.GetDescription(lookupCtx, codeID)
	if err != nil {
		if p.log != nil {
			p.log.Warn("processor: description lookup failed, using synthetic description",
				zap.Error(cgerrors.NewDescriptionLookupFailedError(codeID, err)))
		}
		return syntheticDescription(codeID)
	}
	if !ok {
		return syntheticDescription(codeID)
	}
	return description
}

func syntheticDescription(codeID string) string {
	return fmt.Sprintf("Alarm code %s has been triggered", codeID)
}

// deleteOneShot removes the store row for a fired one-shot alarm. Failure
// here is logged, not retried: the in-memory scheduler has already
// removed the alarm, so the residual row is cleaned up by the scheduler's
// next cleanup sweep or a full Reload.
func (p *Processor) deleteOneShot(ctx context.Context, ev events.AlarmEvent) {
	if _, err := p.store.Delete(ctx, ev.CodeID, ev.Email, ev.LocalTime); err != nil {
		if p.log != nil {
			p.log.Warn("processor: one-shot store delete failed", zap.String("alarm_id", ev.AlarmID), zap.Error(err))
		}
	}
}

// Processed returns the number of events this processor has handled.
func (p *Processor) Processed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}
