package calendar

import (
	"fmt"
	"strings"
	"time"
)

// WorkingMarker flags a holiday description as a special trading session
// (e.g. "Diwali Laxmi Pujan*" for Muhurat trading).
const WorkingMarker = "*"

// HolidayRecord is one raw row of an exchange holiday list.
type HolidayRecord struct {
	TradeDay    string `json:"trade_day" yaml:"trade_day"`
	WeekDay     string `json:"week_day,omitempty" yaml:"week_day,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// HolidayEntry is a parsed holiday row.
// Working entries open a day that would otherwise be closed; the rest close
// a day that would otherwise trade.
type HolidayEntry struct {
	Date        CalendarDate
	WeekDay     time.Weekday
	Description string
	Working     bool
}

// NewHolidayEntry parses rec. The weekday is derived from the date when the
// record leaves it empty or uses an unknown label.
func NewHolidayEntry(rec HolidayRecord, layout string) (HolidayEntry, error) {
	date, err := Parse(rec.TradeDay, layout)
	if err != nil {
		return HolidayEntry{}, err
	}

	weekday, ok := parseWeekday(rec.WeekDay)
	if !ok {
		weekday = date.Weekday()
	}

	return HolidayEntry{
		Date:        date,
		WeekDay:     weekday,
		Description: strings.TrimSpace(rec.Description),
		Working:     strings.Contains(rec.Description, WorkingMarker),
	}, nil
}

func parseWeekday(label string) (time.Weekday, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if len(label) < 3 {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if label == name || label == name[:3] {
			return wd, true
		}
	}
	return 0, false
}

// HolidayCalendar is an immutable holiday list anchored to a reference day.
// The next/previous pointers are computed once by the constructor.
type HolidayCalendar struct {
	entries []HolidayEntry
	index   map[time.Time]int
	today   CalendarDate

	nextHoliday CalendarDate
	nextWorking CalendarDate

	prevHoliday    CalendarDate
	hasPrevHoliday bool
	prevWorking    CalendarDate
	hasPrevWorking bool
}

// NewHolidayCalendar parses records and builds a calendar anchored to today.
// Records are kept in the order given and are expected to be chronological.
func NewHolidayCalendar(records []HolidayRecord, layout string, today CalendarDate) (*HolidayCalendar, error) {
	entries := make([]HolidayEntry, 0, len(records))
	for i, rec := range records {
		entry, err := NewHolidayEntry(rec, layout)
		if err != nil {
			return nil, fmt.Errorf("holiday record %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return NewHolidayCalendarFromEntries(entries, today)
}

// NewHolidayCalendarFromEntries builds a calendar anchored to today.
//
// It fails with *ExhaustedCalendarError unless the list holds at least one
// non-working and one working entry on or after today.
func NewHolidayCalendarFromEntries(entries []HolidayEntry, today CalendarDate) (*HolidayCalendar, error) {
	c := &HolidayCalendar{
		entries: append([]HolidayEntry(nil), entries...),
		index:   make(map[time.Time]int, len(entries)),
		today:   today,
	}
	for i, e := range c.entries {
		if _, seen := c.index[e.Date.day]; !seen {
			c.index[e.Date.day] = i
		}
	}

	var holidayFound, workingFound bool
	for _, e := range c.entries {
		if e.Date.Before(today) {
			continue
		}
		if e.Working && !workingFound {
			c.nextWorking, workingFound = e.Date, true
		} else if !e.Working && !holidayFound {
			c.nextHoliday, holidayFound = e.Date, true
		}
		if holidayFound && workingFound {
			break
		}
	}
	if !holidayFound || !workingFound {
		return nil, &ExhaustedCalendarError{
			Today:        today,
			Entries:      len(c.entries),
			HolidayFound: holidayFound,
			WorkingFound: workingFound,
		}
	}

	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if !e.Date.Before(today) {
			continue
		}
		if e.Working && !c.hasPrevWorking {
			c.prevWorking, c.hasPrevWorking = e.Date, true
		} else if !e.Working && !c.hasPrevHoliday {
			c.prevHoliday, c.hasPrevHoliday = e.Date, true
		}
		if c.hasPrevHoliday && c.hasPrevWorking {
			break
		}
	}

	return c, nil
}

// Refresh re-anchors the same entries to a new reference day.
func (c *HolidayCalendar) Refresh(today CalendarDate) (*HolidayCalendar, error) {
	return NewHolidayCalendarFromEntries(c.entries, today)
}

// Today is the reference day the pointers were computed from.
func (c *HolidayCalendar) Today() CalendarDate { return c.today }

// NextHoliday is the earliest non-working entry on or after Today.
func (c *HolidayCalendar) NextHoliday() CalendarDate { return c.nextHoliday }

// NextWorking is the earliest working entry on or after Today.
func (c *HolidayCalendar) NextWorking() CalendarDate { return c.nextWorking }

// PrevHoliday is the latest non-working entry before Today, if any.
func (c *HolidayCalendar) PrevHoliday() (CalendarDate, bool) {
	return c.prevHoliday, c.hasPrevHoliday
}

// PrevWorking is the latest working entry before Today, if any.
func (c *HolidayCalendar) PrevWorking() (CalendarDate, bool) {
	return c.prevWorking, c.hasPrevWorking
}

func (c *HolidayCalendar) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in their original order.
func (c *HolidayCalendar) Entries() []HolidayEntry {
	return append([]HolidayEntry(nil), c.entries...)
}

// Contains reports whether some entry falls exactly on d.
func (c *HolidayCalendar) Contains(d CalendarDate) bool {
	_, ok := c.index[d.day]
	return ok
}

// Entry returns the first entry on d.
func (c *HolidayCalendar) Entry(d CalendarDate) (HolidayEntry, bool) {
	i, ok := c.index[d.day]
	if !ok {
		return HolidayEntry{}, false
	}
	return c.entries[i], true
}

// IsHoliday reports whether d is a non-working entry.
func (c *HolidayCalendar) IsHoliday(d CalendarDate) bool {
	e, ok := c.Entry(d)
	return ok && !e.Working
}

// IsWorking reports whether d is an explicitly opened trading day.
func (c *HolidayCalendar) IsWorking(d CalendarDate) bool {
	e, ok := c.Entry(d)
	return ok && e.Working
}

// IsTradingDay reports whether the exchange trades on d.
func (c *HolidayCalendar) IsTradingDay(d CalendarDate) bool {
	if e, ok := c.Entry(d); ok {
		return e.Working
	}
	return !d.IsWeekend()
}

// FirstWorkingBetween returns the earliest working entry strictly between after and before.
func (c *HolidayCalendar) FirstWorkingBetween(after, before CalendarDate) (CalendarDate, bool) {
	var found CalendarDate
	ok := false
	for _, e := range c.entries {
		if !e.Working || !e.Date.After(after) || !e.Date.Before(before) {
			continue
		}
		if !ok || e.Date.Before(found) {
			found, ok = e.Date, true
		}
	}
	return found, ok
}

// LastWorkingBetween returns the latest working entry strictly between after and before.
func (c *HolidayCalendar) LastWorkingBetween(after, before CalendarDate) (CalendarDate, bool) {
	var found CalendarDate
	ok := false
	for _, e := range c.entries {
		if !e.Working || !e.Date.After(after) || !e.Date.Before(before) {
			continue
		}
		if !ok || e.Date.After(found) {
			found, ok = e.Date, true
		}
	}
	return found, ok
}

// Upcoming returns up to n entries on or after Today; n <= 0 returns all of them.
func (c *HolidayCalendar) Upcoming(n int) []HolidayEntry {
	var out []HolidayEntry
	for _, e := range c.entries {
		if e.Date.Before(c.today) {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
