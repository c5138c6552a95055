package notifier

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/cloud-nimbus/chronoguard/internal/events"
)

// SMTPConfig carries the credentials and pool size for SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	PoolSize int // bounded, e.g. 5
}

// SMTPSender sends EmailRequests over a bounded pool of go-mail clients.
// On send failure the client used for that attempt is discarded rather
// than returned to the pool, and the request is counted as failed by the
// caller. There is no automatic retry.
type SMTPSender struct {
	from string
	pool chan *mail.Client
}

// NewSMTPSender creates PoolSize clients up front for the configured SMTP
// server. No connection is opened here; each Send dials through its client.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	size := cfg.PoolSize
	if size <= 0 {
		size = 5
	}

	pool := make(chan *mail.Client, size)
	for i := 0; i < size; i++ {
		client, err := mail.NewClient(cfg.Host,
			mail.WithPort(cfg.Port),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
		if err != nil {
			return nil, fmt.Errorf("notifier: create SMTP client %d/%d: %w", i+1, size, err)
		}
		pool <- client
	}

	return &SMTPSender{from: cfg.From, pool: pool}, nil
}

// Send builds and delivers a MIME message whose subject carries the code
// id and whose body carries the code id, description, local time, and
// timezone.
func (s *SMTPSender) Send(ctx context.Context, req events.EmailRequest) error {
	var client *mail.Client
	select {
	case client = <-s.pool:
	case <-ctx.Done():
		return ctx.Err()
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		s.pool <- client
		return fmt.Errorf("notifier: set From: %w", err)
	}
	if err := msg.To(req.ToEmail); err != nil {
		s.pool <- client
		return fmt.Errorf("notifier: set To: %w", err)
	}
	msg.Subject(fmt.Sprintf("Alarm %s triggered", req.CodeID))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Code: %s\nDescription: %s\nTime: %s (%s)\n",
		req.CodeID, req.Description, req.AlarmTime, req.Timezone,
	))

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		// Discard, don't return to the pool: the connection may be wedged.
		return fmt.Errorf("notifier: send: %w", err)
	}

	s.pool <- client
	return nil
}

// Close drains the pool; called during shutdown.
func (s *SMTPSender) Close() {
	for {
		select {
		case <-s.pool:
		default:
			return
		}
	}
}
