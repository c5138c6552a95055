package alarm

import (
	"testing"
	"time"
)

func TestID(t *testing.T) {
	a := Alarm{CodeID: "A", Email: "u@x", LocalTime: "09:00:00"}
	want := "alarm_A_u@x_09:00:00"
	if got := a.ID(); got != want {
		t.Errorf("ID() = %q, want %q", got, want)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a, err := Normalize(Request{
		CodeID:    "A",
		Email:     "u@x",
		LocalTime: "09:00",
	}, "UTC", ref, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.LocalTime != "09:00:00" {
		t.Errorf("LocalTime = %q, want 09:00:00", a.LocalTime)
	}
	if a.UTCTime != "09:00:00" {
		t.Errorf("UTCTime = %q, want 09:00:00", a.UTCTime)
	}
	if a.DaysOfWeek.Empty() {
		t.Errorf("expected default days_of_week to be all seven days")
	}
	if a.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", a.Timezone)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestNormalize_TimezoneTranslation(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// A known PST (UTC-8) date.
	ref := time.Date(2024, 1, 15, 0, 0, 0, 0, loc)
	a, err := Normalize(Request{
		CodeID:      "B",
		Email:       "u@x",
		LocalTime:   "09:00:00",
		IsRecurring: true,
		Timezone:    "America/Los_Angeles",
	}, "UTC", ref, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.UTCTime != "17:00:00" {
		t.Errorf("UTCTime = %q, want 17:00:00", a.UTCTime)
	}
}

func TestNormalize_InvalidTime(t *testing.T) {
	ref := time.Now()
	_, err := Normalize(Request{CodeID: "A", Email: "u@x", LocalTime: "25:00"}, "UTC", ref, ref)
	if err == nil {
		t.Fatal("expected error for invalid time")
	}
}

func TestNormalize_InvalidTimezone(t *testing.T) {
	ref := time.Now()
	_, err := Normalize(Request{CodeID: "A", Email: "u@x", LocalTime: "09:00", Timezone: "Mars/Olympus"}, "UTC", ref, ref)
	if err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestRetime(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a, err := Normalize(Request{CodeID: "A", Email: "u@x", LocalTime: "09:00:00", IsRecurring: true}, "UTC", ref, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	later := ref.AddDate(0, 0, 1)
	retimed, err := a.Retime(later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retimed.UTCTime != "09:00:00" {
		t.Errorf("UTCTime after retime = %q, want 09:00:00", retimed.UTCTime)
	}
	if !retimed.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", retimed.UpdatedAt, later)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	if err := (Alarm{}).Validate(); err == nil {
		t.Error("expected error for zero-value Alarm")
	}
}
