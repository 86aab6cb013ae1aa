package normalize

import (
	"testing"
	"time"
)

func TestTime_PlainClockValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "single digit hour and minute", raw: "9:0", want: "09:00"},
		{name: "single digit minute only", raw: "18:5", want: "18:05"},
		{name: "already canonical", raw: "21:00", want: "21:00"},
		{name: "with seconds", raw: "08:30:45", want: "08:30"},
		{name: "leading whitespace", raw: " 7:05 ", want: "07:05"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Time(tc.raw, DefaultSheetTimeOffset); got != tc.want {
				t.Fatalf("Time(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestTime_SheetTimestamp(t *testing.T) {
	t.Parallel()

	got := Time("1899-12-30T13:00:00.000Z", 8*time.Hour)
	if got != "21:00" {
		t.Fatalf("Time() = %q, want %q", got, "21:00")
	}

	// The offset is configurable; a different correction shifts the result.
	got = Time("1899-12-30T13:00:00.000Z", 7*time.Hour)
	if got != "20:00" {
		t.Fatalf("Time() with 7h offset = %q, want %q", got, "20:00")
	}

	// No milliseconds variant.
	got = Time("1899-12-30T02:15:00", 8*time.Hour)
	if got != "10:15" {
		t.Fatalf("Time() = %q, want %q", got, "10:15")
	}
}

func TestTime_FractionalDay(t *testing.T) {
	t.Parallel()

	if got := Time("0.875", DefaultSheetTimeOffset); got != "21:00" {
		t.Fatalf("Time(0.875) = %q, want 21:00", got)
	}
	if got := Time("0", DefaultSheetTimeOffset); got != "00:00" {
		t.Fatalf("Time(0) = %q, want 00:00", got)
	}
	if got := Time("0.5", DefaultSheetTimeOffset); got != "12:00" {
		t.Fatalf("Time(0.5) = %q, want 12:00", got)
	}
	// 0.35 * 1440 is 503.999... in binary floating point; the conversion
	// rounds to whole minutes rather than truncating.
	if got := Time("0.35", DefaultSheetTimeOffset); got != "08:24" {
		t.Fatalf("Time(0.35) = %q, want 08:24", got)
	}
	if got := Time("1", DefaultSheetTimeOffset); got != "00:00" {
		t.Fatalf("Time(1) = %q, want 00:00", got)
	}
}

func TestTime_UnrecognizedInputPassesThrough(t *testing.T) {
	t.Parallel()

	cases := []string{"25:00", "noon", "1.5", "12:60", "tomorrow at nine"}
	for _, raw := range cases {
		if got := Time(raw, DefaultSheetTimeOffset); got != raw {
			t.Fatalf("Time(%q) = %q, want input returned unchanged", raw, got)
		}
	}
}

func TestDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{raw: "5/7/2025", want: "05/07/2025"},
		{raw: "15/12/2025", want: "15/12/2025"},
		{raw: "1/1/2026", want: "01/01/2026"},
		{raw: "2025-07-05", want: "2025-07-05"},
		{raw: "not a date", want: "not a date"},
	}

	for _, tc := range cases {
		if got := Date(tc.raw); got != tc.want {
			t.Fatalf("Date(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestMinutesOfDay(t *testing.T) {
	t.Parallel()

	if got, ok := MinutesOfDay("21:00"); !ok || got != 1260 {
		t.Fatalf("MinutesOfDay(21:00) = %d, %v", got, ok)
	}
	if got, ok := MinutesOfDay("00:00"); !ok || got != 0 {
		t.Fatalf("MinutesOfDay(00:00) = %d, %v", got, ok)
	}
	if got, ok := MinutesOfDay("09:30:15"); !ok || got != 570 {
		t.Fatalf("MinutesOfDay(09:30:15) = %d, %v", got, ok)
	}
	if got, ok := MinutesOfDay("9:0"); !ok || got != 540 {
		t.Fatalf("MinutesOfDay(9:0) = %d, %v", got, ok)
	}
	if _, ok := MinutesOfDay("24:00"); ok {
		t.Fatal("MinutesOfDay(24:00) should not parse")
	}
	if _, ok := MinutesOfDay("garbage"); ok {
		t.Fatal("MinutesOfDay(garbage) should not parse")
	}
	if _, ok := MinutesOfDay(""); ok {
		t.Fatal("MinutesOfDay(empty) should not parse")
	}
}
