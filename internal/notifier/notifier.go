// Package notifier consumes email_requests and delivers (or simulates)
// the outgoing email, counting successes and failures.
package notifier

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cloud-nimbus/chronoguard/internal/events"
	"github.com/cloud-nimbus/chronoguard/internal/telemetry"
)

// Mode selects between a simulated send and a real SMTP send.
type Mode string

const (
	ModeSimulation Mode = "simulation"
	ModeSMTP       Mode = "smtp"
)

// simMinDelay and simMaxDelay bound the simulated send latency.
const (
	simMinDelay = 10 * time.Millisecond
	simMaxDelay = 50 * time.Millisecond
)

// simFailureRate is the fraction of simulated sends that report failure.
const simFailureRate = 0.01

// Sender delivers one EmailRequest. SimulatedSender and SMTPSender both
// implement it.
type Sender interface {
	Send(ctx context.Context, req events.EmailRequest) error
}

// Subscriber is the subset of bus.EventBus the notifier needs.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler func(string)) (cancel func(), err error)
}

// Notifier subscribes to email_requests and dispatches each to a Sender,
// counting sent/failed outcomes.
type Notifier struct {
	sender Subscriber
	send   Sender
	log    *zap.Logger

	mu     sync.Mutex
	sent   int64
	failed int64

	cancel func()
}

// New constructs a Notifier over the given Sender.
func New(bus Subscriber, send Sender, log *zap.Logger) *Notifier {
	return &Notifier{sender: bus, send: send, log: log}
}

// Start subscribes to email_requests.
func (n *Notifier) Start(ctx context.Context) error {
	cancel, err := n.sender.Subscribe(ctx, events.TopicEmailRequests, func(payload string) {
		n.handle(ctx, payload)
	})
	if err != nil {
		return err
	}
	n.cancel = cancel
	return nil
}

// Stop cancels the email_requests subscription.
func (n *Notifier) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
}

func (n *Notifier) handle(ctx context.Context, payload string) {
	defer func() {
		if r := recover(); r != nil && n.log != nil {
			n.log.Error("notifier: handler panicked", zap.Any("panic", r))
		}
	}()

	req, err := events.ParseEmailRequest(payload)
	if err != nil {
		if n.log != nil {
			n.log.Error("notifier: malformed email_request", zap.Error(err))
		}
		return
	}

	if err := n.send.Send(ctx, req); err != nil {
		n.mu.Lock()
		n.failed++
		n.mu.Unlock()
		if n.log != nil {
			n.log.Warn("notifier: send failed", zap.String("to_email", req.ToEmail), zap.Error(err))
		}
		telemetry.RecordOperation(ctx, telemetry.OpNotify, telemetry.ResultError, telemetry.ComponentNotifier)
		telemetry.RecordFailed(ctx)
		return
	}

	n.mu.Lock()
	n.sent++
	n.mu.Unlock()
	telemetry.RecordOperation(ctx, telemetry.OpNotify, telemetry.ResultSuccess, telemetry.ComponentNotifier)
	telemetry.RecordSent(ctx)
}

// Sent returns the number of successful sends since the last Reset.
func (n *Notifier) Sent() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

// Failed returns the number of failed sends since the last Reset.
func (n *Notifier) Failed() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.failed
}

// Reset zeroes both counters.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = 0
	n.failed = 0
}

// SimulatedSender sleeps a random 10-50ms and fails ~1% of the time,
// without ever touching a real mail server. Failures are logged, not
// retried.
type SimulatedSender struct {
	log *zap.Logger
}

// NewSimulatedSender constructs a SimulatedSender.
func NewSimulatedSender(log *zap.Logger) *SimulatedSender {
	return &SimulatedSender{log: log}
}

func (s *SimulatedSender) Send(ctx context.Context, req events.EmailRequest) error {
	delay := simMinDelay + time.Duration(rand.Int63n(int64(simMaxDelay-simMinDelay)))
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if rand.Float64() < simFailureRate {
		return fmt.Errorf("notifier: simulated send failure for %s", req.ToEmail)
	}
	if s.log != nil {
		s.log.Debug("notifier: simulated send", zap.String("to_email", req.ToEmail), zap.String("code_id", req.CodeID))
	}
	return nil
}
