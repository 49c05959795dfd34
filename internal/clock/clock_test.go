package clock

import (
	"errors"
	"testing"
	"time"
)

func TestFormatIn(t *testing.T) {
	t.Parallel()

	// 08:00 IST on 2025-06-15 is 02:30 UTC.
	instant := time.Date(2025, 6, 15, 2, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		zone string
		want string
	}{
		{name: "UTC", zone: "UTC", want: "2025-06-15 02:30:00"},
		{name: "Kolkata", zone: "Asia/Kolkata", want: "2025-06-15 08:00:00"},
		{name: "New York", zone: "America/New_York", want: "2025-06-14 22:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatIn(instant, tt.zone)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatInUnknownZone(t *testing.T) {
	t.Parallel()

	for _, zone := range []string{"Mars/Olympus", ""} {
		if _, err := FormatIn(time.Now(), zone); !errors.Is(err, ErrUnknownTimezone) {
			t.Fatalf("zone %q: expected ErrUnknownTimezone, got %v", zone, err)
		}
	}
}

func TestFixedClock(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := NewFixed(now)
	if got := clk.Now(); !got.Equal(now) {
		t.Fatalf("expected %v, got %v", now, got)
	}
	if got := clk.Now(); !got.Equal(now) {
		t.Fatalf("fixed clock changed between calls: %v", got)
	}
}

func TestSystemClockUTC(t *testing.T) {
	t.Parallel()

	if loc := NewSystem().Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}
