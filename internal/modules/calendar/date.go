// Package calendar resolves NSE trading days.
//
// It answers which session "today" refers to around the settlement cutoff,
// and which sessions come before and after it once weekends and exchange
// holidays are skipped. Nothing in this package performs I/O; the only
// wall-clock read happens through the Clock held by a MarketSession.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLayout renders dates the way the exchange publishes them, e.g. "24-Apr-2024".
const DefaultLayout = "02-Jan-2006"

// CalendarDate is an immutable calendar day bound to the layout it is rendered with.
// Equality and ordering compare the day only, never the string form.
type CalendarDate struct {
	raw    string
	layout string
	day    time.Time // midnight UTC
}

// unpadded relaxes zero-padded day and month numbers to one-or-two digits.
var unpadded = strings.NewReplacer("02", "2", "01", "1")

// DateLike is any value that can be coerced into a CalendarDate.
type DateLike interface {
	CalendarDate | time.Time | string
}

// Parse parses raw using layout (DefaultLayout when empty).
func Parse(raw, layout string) (CalendarDate, error) {
	if layout == "" {
		layout = DefaultLayout
	}

	value := strings.TrimSpace(raw)
	t, err := time.Parse(layout, value)
	if err != nil {
		// Exchange feeds and configs also write unpadded days such as "2-Mar-2024".
		lenient := unpadded.Replace(layout)
		if lenient == layout {
			return CalendarDate{}, &DateFormatError{Raw: raw, Layout: layout, Err: err}
		}
		var retryErr error
		if t, retryErr = time.Parse(lenient, value); retryErr != nil {
			return CalendarDate{}, &DateFormatError{Raw: raw, Layout: layout, Err: err}
		}
	}

	d := newDate(t, layout)
	d.raw = raw
	return d, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(raw, layout string) CalendarDate {
	d, err := Parse(raw, layout)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime takes the year, month and day of t in t's own location.
func FromTime(t time.Time, layout string) CalendarDate {
	if layout == "" {
		layout = DefaultLayout
	}
	return newDate(t, layout)
}

// ToCalendarDate coerces a date-like value into a CalendarDate rendered with layout.
// Only strings can fail, with a *DateFormatError.
func ToCalendarDate[T DateLike](value T, layout string) (CalendarDate, error) {
	switch v := any(value).(type) {
	case CalendarDate:
		if layout == "" || v.layout == layout {
			return v, nil
		}
		return newDate(v.day, layout), nil
	case time.Time:
		return FromTime(v, layout), nil
	case string:
		return Parse(v, layout)
	}
	return CalendarDate{}, fmt.Errorf("unsupported date value %T", value)
}

func newDate(t time.Time, layout string) CalendarDate {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return CalendarDate{
		raw:    day.Format(layout),
		layout: layout,
		day:    day,
	}
}

// String renders the date with its layout. Parse(d.String(), d.Layout()) equals d.
func (d CalendarDate) String() string {
	if d.layout == "" {
		return d.day.Format(DefaultLayout)
	}
	return d.day.Format(d.layout)
}

// Raw returns the input the date was parsed from.
func (d CalendarDate) Raw() string { return d.raw }

// Layout returns the layout used by String.
func (d CalendarDate) Layout() string {
	if d.layout == "" {
		return DefaultLayout
	}
	return d.layout
}

// Time returns the day at midnight UTC.
func (d CalendarDate) Time() time.Time { return d.day }

// IsZero reports whether d was never set.
func (d CalendarDate) IsZero() bool { return d.day.IsZero() }

func (d CalendarDate) Weekday() time.Weekday { return d.day.Weekday() }

// ISOWeekday numbers the week from Monday=1 to Sunday=7.
func (d CalendarDate) ISOWeekday() int {
	if wd := d.day.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
func (d CalendarDate) IsWeekend() bool {
	wd := d.day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Add moves d by days calendar days.
func (d CalendarDate) Add(days int) CalendarDate {
	return newDate(d.day.AddDate(0, 0, days), d.Layout())
}

// Subtract moves d back by days calendar days.
func (d CalendarDate) Subtract(days int) CalendarDate {
	return d.Add(-days)
}

// AddBusinessDay returns the next weekday after d. Holidays are not considered.
func (d CalendarDate) AddBusinessDay() CalendarDate {
	next := d.Add(1)
	for next.IsWeekend() {
		next = next.Add(1)
	}
	return next
}

// SubtractBusinessDay returns the weekday before d. Holidays are not considered.
func (d CalendarDate) SubtractBusinessDay() CalendarDate {
	prev := d.Subtract(1)
	for prev.IsWeekend() {
		prev = prev.Subtract(1)
	}
	return prev
}

func (d CalendarDate) Equal(o CalendarDate) bool { return d.day.Equal(o.day) }
func (d CalendarDate) Before(o CalendarDate) bool { return d.day.Before(o.day) }
func (d CalendarDate) After(o CalendarDate) bool { return d.day.After(o.day) }

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d CalendarDate) Compare(o CalendarDate) int { return d.day.Compare(o.day) }

// MarshalText renders the date with its layout.
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var strftimeDirectives = strings.NewReplacer(
	"%d", "02",
	"%-d", "2",
	"%b", "Jan",
	"%B", "January",
	"%m", "01",
	"%-m", "1",
	"%Y", "2006",
	"%y", "06",
	"%a", "Mon",
	"%A", "Monday",
	"%H", "15",
	"%M", "04",
	"%S", "05",
	"%%", "%",
)

// LayoutFromStrftime converts a strftime pattern such as "%d-%b-%Y" into a Go
// layout. Strings without a '%' are assumed to already be Go layouts.
func LayoutFromStrftime(format string) string {
	if !strings.Contains(format, "%") {
		return format
	}
	return strftimeDirectives.Replace(format)
}
