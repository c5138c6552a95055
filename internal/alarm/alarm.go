// Package alarm defines the Alarm record, the system's single unit of
// scheduling, and the validation/normalization rules applied to it at
// ingest.
package alarm

import (
	"fmt"
	"time"

	cgerrors "github.com/cloud-nimbus/chronoguard/internal/errors"
	"github.com/cloud-nimbus/chronoguard/internal/timeutil"
)

// Alarm is the fully-populated record for one scheduled notification.
// There are no optional fields resolved by a lookup-with-default at read
// time; Normalize applies every default once, at ingest.
type Alarm struct {
	// CodeID is an opaque caller-supplied identifier for what fired.
	CodeID string
	// Email is the recipient address.
	Email string
	// LocalTime is the caller-supplied time-of-day, normalized to HH:MM:SS,
	// preserved verbatim (in Timezone) for display.
	LocalTime string
	// UTCTime is the HH:MM:SS of LocalTime converted into UTC on the date
	// Normalize ran. Recomputed by Retime for recurring alarms once a day.
	UTCTime string
	// IsRecurring is false for one-shot alarms removed after their first
	// fire, true for alarms that persist across matching weekdays.
	IsRecurring bool
	// DaysOfWeek is the non-empty set of weekdays, evaluated in Timezone,
	// on which this alarm is eligible to fire.
	DaysOfWeek timeutil.WeekdaySet
	// Timezone is the IANA zone LocalTime and DaysOfWeek are evaluated in.
	Timezone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ID returns the canonical alarm identity string, stable across the
// alarm's lifetime and used as both the store primary key's string form and
// the in-memory table key.
func (a Alarm) ID() string {
	return fmt.Sprintf("alarm_%s_%s_%s", a.CodeID, a.Email, a.LocalTime)
}

// allDays is the default recurrence applied when a caller omits
// days_of_week: every day of the week.
func allDays() timeutil.WeekdaySet {
	var s timeutil.WeekdaySet
	for i := range s {
		s[i] = true
	}
	return s
}

// Request carries the caller-supplied fields for Schedule, prior to
// defaulting and UTC derivation.
type Request struct {
	CodeID      string
	Email       string
	LocalTime   string
	IsRecurring bool
	DaysOfWeek  string // comma-separated three-letter names; "" means default
	Timezone    string // "" means the configured system default
}

// Normalize validates req and produces a fully-populated Alarm, applying
// the default-seven-days and default-timezone rules. ref is the instant
// Normalize treats as "today" when deriving UTCTime; now is the creation
// timestamp recorded on the alarm.
func Normalize(req Request, defaultTimezone string, ref, now time.Time) (Alarm, error) {
	tz := req.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := timeutil.LoadLocation(tz)
	if err != nil {
		return Alarm{}, cgerrors.NewInvalidTimezoneError(tz, err)
	}

	hh, mm, ss, err := timeutil.ParseTimeOfDay(req.LocalTime)
	if err != nil {
		return Alarm{}, cgerrors.NewInvalidTimeError(req.LocalTime, err)
	}
	localTime := timeutil.FormatTimeOfDay(hh, mm, ss)

	var days timeutil.WeekdaySet
	if req.DaysOfWeek == "" {
		days = allDays()
	} else {
		days, err = timeutil.ParseWeekdaySet(req.DaysOfWeek)
		if err != nil {
			return Alarm{}, cgerrors.NewInvalidTimeError(req.DaysOfWeek, err)
		}
	}

	utc, err := timeutil.LocalToUTC(hh, mm, ss, loc, ref)
	if err != nil {
		return Alarm{}, err
	}

	a := Alarm{
		CodeID:      req.CodeID,
		Email:       req.Email,
		LocalTime:   localTime,
		UTCTime:     timeutil.FormatTimeOfDay(utc.Hour(), utc.Minute(), utc.Second()),
		IsRecurring: req.IsRecurring,
		DaysOfWeek:  days,
		Timezone:    tz,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.Validate(); err != nil {
		return Alarm{}, err
	}
	return a, nil
}

// Validate reports whether a carries the minimum fields every alarm must
// have. Normalize always produces a valid Alarm; Validate exists
// separately so Reload can check rows read back from the store without
// re-deriving them.
func (a Alarm) Validate() error {
	if a.CodeID == "" {
		return fmt.Errorf("alarm: code_id is required")
	}
	if a.Email == "" {
		return fmt.Errorf("alarm: email is required")
	}
	if a.LocalTime == "" {
		return fmt.Errorf("alarm: local_time is required")
	}
	if a.UTCTime == "" {
		return fmt.Errorf("alarm: utc_time is required")
	}
	if a.DaysOfWeek.Empty() {
		return fmt.Errorf("alarm: days_of_week must be non-empty")
	}
	if a.Timezone == "" {
		return fmt.Errorf("alarm: timezone is required")
	}
	return nil
}

// Retime recomputes UTCTime from LocalTime and Timezone against ref,
// returning the updated Alarm. Called by the scheduler's daily DST
// self-heal sweep for recurring alarms; one-shot alarms are never retimed.
func (a Alarm) Retime(ref time.Time) (Alarm, error) {
	loc, err := timeutil.LoadLocation(a.Timezone)
	if err != nil {
		return a, cgerrors.NewInvalidTimezoneError(a.Timezone, err)
	}
	hh, mm, ss, err := timeutil.ParseTimeOfDay(a.LocalTime)
	if err != nil {
		return a, cgerrors.NewInvalidTimeError(a.LocalTime, err)
	}
	utc, err := timeutil.LocalToUTC(hh, mm, ss, loc, ref)
	if err != nil {
		return a, err
	}
	a.UTCTime = timeutil.FormatTimeOfDay(utc.Hour(), utc.Minute(), utc.Second())
	a.UpdatedAt = ref
	return a, nil
}
