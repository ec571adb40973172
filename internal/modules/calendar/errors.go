package calendar

import (
	"errors"
	"fmt"
)

// ErrExhaustedCalendar matches every *ExhaustedCalendarError.
var ErrExhaustedCalendar = errors.New("holiday list exhausted, update holiday list")

// DateFormatError is returned when a date string does not match its layout.
type DateFormatError struct {
	Raw    string
	Layout string
	Err    error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("date %q does not match layout %q", e.Raw, e.Layout)
}

func (e *DateFormatError) Unwrap() error { return e.Err }

// ExhaustedCalendarError is returned when a holiday list has no upcoming
// non-working entry or no upcoming working entry relative to Today.
// The caller has to supply a longer list.
type ExhaustedCalendarError struct {
	Today        CalendarDate
	Entries      int
	HolidayFound bool
	WorkingFound bool
}

func (e *ExhaustedCalendarError) Error() string {
	missing := "working day"
	switch {
	case !e.HolidayFound && !e.WorkingFound:
		missing = "holiday or working day"
	case !e.HolidayFound:
		missing = "holiday"
	}
	return fmt.Sprintf("%s: no %s on or after %s in %d entries",
		ErrExhaustedCalendar, missing, e.Today, e.Entries)
}

func (e *ExhaustedCalendarError) Is(target error) bool {
	return target == ErrExhaustedCalendar
}

// SessionConfigError is returned for market timings that cannot form a session.
type SessionConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *SessionConfigError) Error() string {
	return fmt.Sprintf("invalid market timing %s=%q: %s", e.Field, e.Value, e.Reason)
}
