package clock

import (
	"errors"
	"fmt"
	"time"
)

// DefaultZone is the timezone used when a request does not name one.
const DefaultZone = "Asia/Kolkata"

// Layout is the wire format for rendered timestamps.
const Layout = "2006-01-02 15:04:05"

// ErrUnknownTimezone is returned when a timezone name is not in the
// IANA database.
var ErrUnknownTimezone = errors.New("unknown timezone")

// LocationFor resolves an IANA timezone name. The empty string is
// rejected rather than silently meaning UTC.
func LocationFor(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// Format renders an instant in the given location.
func Format(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(Layout)
}

// FormatIn renders an instant in a named timezone. Pure; the only
// failure mode is an unknown name.
func FormatIn(t time.Time, name string) (string, error) {
	loc, err := LocationFor(name)
	if err != nil {
		return "", err
	}
	return Format(t, loc), nil
}
