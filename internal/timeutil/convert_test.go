package timeutil

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		h, m, s int
		wantErr bool
	}{
		{"09:30", 9, 30, 0, false},
		{"09:30:15", 9, 30, 15, false},
		{"23:59:59", 23, 59, 59, false},
		{"24:00", 0, 0, 0, true},
		{"09:60", 0, 0, 0, true},
		{"bad", 0, 0, 0, true},
		{"09:30:60", 0, 0, 0, true},
	}
	for _, tc := range cases {
		h, m, s, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got none", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): unexpected error: %v", tc.in, err)
		}
		if h != tc.h || m != tc.m || s != tc.s {
			t.Errorf("ParseTimeOfDay(%q) = %d:%d:%d, want %d:%d:%d", tc.in, h, m, s, tc.h, tc.m, tc.s)
		}
	}
}

func TestLocalToUTC_SpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-03-10: clocks jump from 01:59:59 to 03:00:00 EST->EDT.
	ref := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	got, err := LocalToUTC(2, 30, 0, loc, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 02:30 doesn't exist; LocalToUTC resolves it forward to 03:30 EDT == 07:30 UTC.
	want := time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("LocalToUTC = %v, want %v", got, want)
	}
}

func TestLocalToUTC_FallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-11-03: clocks fall back from 01:59:59 EDT to 01:00:00 EST.
	ref := time.Date(2024, 11, 3, 0, 0, 0, 0, loc)
	got, err := LocalToUTC(1, 30, 0, loc, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() == 0 {
		t.Fatalf("expected a normalized UTC hour, got %v", got)
	}
}

func TestLocalToUTC_RoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// A mid-January day, well clear of any DST boundary.
	ref := time.Date(2024, 1, 15, 0, 0, 0, 0, loc)
	utc, err := LocalToUTC(9, 30, 0, loc, ref)
	if err != nil {
		t.Fatalf("LocalToUTC: %v", err)
	}
	back, err := UTCToLocal(utc.Hour(), utc.Minute(), utc.Second(), loc, utc)
	if err != nil {
		t.Fatalf("UTCToLocal: %v", err)
	}
	if back.Hour() != 9 || back.Minute() != 30 || back.Second() != 0 {
		t.Errorf("round trip = %02d:%02d:%02d, want 09:30:00", back.Hour(), back.Minute(), back.Second())
	}
}

func TestLocalToUTC_MidnightNegativeOffsetWraps(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Local midnight in a UTC-8 zone lands at 08:00 UTC the same day; the
	// alarm's UTC time-of-day sits eight hours "ahead" of its local day.
	ref := time.Date(2024, 1, 15, 0, 0, 0, 0, loc)
	utc, err := LocalToUTC(0, 0, 0, loc, ref)
	if err != nil {
		t.Fatalf("LocalToUTC: %v", err)
	}
	if utc.Hour() != 8 || utc.Minute() != 0 || utc.Second() != 0 {
		t.Errorf("LocalToUTC(00:00:00) = %02d:%02d:%02d UTC, want 08:00:00", utc.Hour(), utc.Minute(), utc.Second())
	}
}

func TestWeekday3(t *testing.T) {
	d := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) // a Monday
	if got := Weekday3(d, time.UTC); got != "Mon" {
		t.Errorf("Weekday3 = %q, want Mon", got)
	}
}

func TestParseWeekdaySet(t *testing.T) {
	set, err := ParseWeekdaySet("Mon,Wed,Fri")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.Contains(time.Monday) || !set.Contains(time.Wednesday) || !set.Contains(time.Friday) {
		t.Errorf("expected Mon/Wed/Fri set, got %v", set)
	}
	if set.Contains(time.Tuesday) {
		t.Errorf("did not expect Tuesday in set")
	}
	if got := set.String(); got != "Mon,Wed,Fri" {
		t.Errorf("String() = %q, want Mon,Wed,Fri", got)
	}
}

func TestParseWeekdaySet_Invalid(t *testing.T) {
	if _, err := ParseWeekdaySet(""); err == nil {
		t.Error("expected error for empty weekday set")
	}
	if _, err := ParseWeekdaySet("Xyz"); err == nil {
		t.Error("expected error for unrecognized weekday")
	}
}

func TestWeekdaySet_Empty(t *testing.T) {
	var s WeekdaySet
	if !s.Empty() {
		t.Error("expected zero value WeekdaySet to be empty")
	}
	s[0] = true
	if s.Empty() {
		t.Error("expected non-zero WeekdaySet to not be empty")
	}
}

func TestLoadLocation_CachesAndUTCDefault(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("expected default location to be UTC")
	}
}
