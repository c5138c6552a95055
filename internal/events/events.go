// Package events defines the payloads carried on the event bus and their
// self-describing wire encoding: a flat key=value line, readable straight
// out of a broker dump or a log.
package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TopicAlarmEvents and TopicEmailRequests are the two bus topics the system
// uses; scheduler publishes the former, notifier consumes the latter.
const (
	TopicAlarmEvents   = "alarm_events"
	TopicEmailRequests = "email_requests"
)

// AlarmEvent is published by the scheduler's tick loop for every alarm that
// fires. FireID is a fresh identifier per firing, distinct from the stable
// AlarmID, so at-least-once consumers can dedupe a redelivered event.
type AlarmEvent struct {
	AlarmID     string
	FireID      string
	CodeID      string
	Email       string
	LocalTime   string
	UTCTime     string
	TriggeredAt time.Time
	IsRecurring bool
	Timezone    string
}

// NewAlarmEvent stamps a fresh FireID and fills TriggeredAt from now.
func NewAlarmEvent(alarmID, codeID, email, localTime, utcTime string, recurring bool, timezone string, now time.Time) AlarmEvent {
	return AlarmEvent{
		AlarmID:     alarmID,
		FireID:      uuid.NewString(),
		CodeID:      codeID,
		Email:       email,
		LocalTime:   localTime,
		UTCTime:     utcTime,
		TriggeredAt: now,
		IsRecurring: recurring,
		Timezone:    timezone,
	}
}

// String renders e as a self-describing key=value line.
func (e AlarmEvent) String() string {
	return fmt.Sprintf(
		"alarm_id=%s fire_id=%s code_id=%s email=%s local_time=%s utc_time=%s triggered_at=%s is_recurring=%t timezone=%s",
		e.AlarmID, e.FireID, e.CodeID, e.Email, e.LocalTime, e.UTCTime,
		e.TriggeredAt.UTC().Format(time.RFC3339), e.IsRecurring, e.Timezone,
	)
}

// ParseAlarmEvent parses the String() encoding back into an AlarmEvent.
func ParseAlarmEvent(s string) (AlarmEvent, error) {
	fields, err := parseFields(s)
	if err != nil {
		return AlarmEvent{}, err
	}
	triggeredAt, err := time.Parse(time.RFC3339, fields["triggered_at"])
	if err != nil {
		return AlarmEvent{}, fmt.Errorf("events: invalid triggered_at: %w", err)
	}
	recurring, err := strconv.ParseBool(fields["is_recurring"])
	if err != nil {
		return AlarmEvent{}, fmt.Errorf("events: invalid is_recurring: %w", err)
	}
	return AlarmEvent{
		AlarmID:     fields["alarm_id"],
		FireID:      fields["fire_id"],
		CodeID:      fields["code_id"],
		Email:       fields["email"],
		LocalTime:   fields["local_time"],
		UTCTime:     fields["utc_time"],
		TriggeredAt: triggeredAt,
		IsRecurring: recurring,
		Timezone:    fields["timezone"],
	}, nil
}

// EmailRequest is published by the processor after enriching an AlarmEvent
// with a human-readable description; the notifier consumes it directly.
type EmailRequest struct {
	ToEmail     string
	CodeID      string
	Description string
	AlarmTime   string // local time-of-day string, for display
	Timezone    string
}

// String renders r as a self-describing key=value line.
func (r EmailRequest) String() string {
	return fmt.Sprintf(
		"to_email=%s code_id=%s description=%q alarm_time=%s timezone=%s",
		r.ToEmail, r.CodeID, r.Description, r.AlarmTime, r.Timezone,
	)
}

// ParseEmailRequest parses the String() encoding back into an EmailRequest.
func ParseEmailRequest(s string) (EmailRequest, error) {
	fields, err := parseFields(s)
	if err != nil {
		return EmailRequest{}, err
	}
	desc, err := strconv.Unquote(fields["description"])
	if err != nil {
		desc = fields["description"]
	}
	return EmailRequest{
		ToEmail:     fields["to_email"],
		CodeID:      fields["code_id"],
		Description: desc,
		AlarmTime:   fields["alarm_time"],
		Timezone:    fields["timezone"],
	}, nil
}

// parseFields splits a space-separated key=value line, respecting quoted
// values that may themselves contain spaces (as EmailRequest.Description
// can).
func parseFields(s string) (map[string]string, error) {
	fields := make(map[string]string)
	var i int
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("events: malformed field starting at %q", s[i:])
		}
		key := s[i : i+eq]
		i += eq + 1
		if i < len(s) && s[i] == '"' {
			end := i + 1
			for end < len(s) {
				if s[end] == '\\' {
					end += 2
					continue
				}
				if s[end] == '"' {
					end++
					break
				}
				end++
			}
			fields[key] = s[i:end]
			i = end
		} else {
			end := strings.IndexByte(s[i:], ' ')
			if end < 0 {
				fields[key] = s[i:]
				i = len(s)
			} else {
				fields[key] = s[i : i+end]
				i += end
			}
		}
	}
	return fields, nil
}
