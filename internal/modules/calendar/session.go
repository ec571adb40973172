package calendar

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // Asia/Kolkata must resolve on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
)

const timeOfDayLayout = "1504"

// amoOffset is how long after close the exchange starts taking after-market orders.
const amoOffset = 10 * time.Minute

var validate = validator.New()

// MarketTiming is the raw session configuration. Times are 24h "HHMM" strings.
type MarketTiming struct {
	StartTime  string `json:"start_time" yaml:"start_time" validate:"required,len=4,numeric"`
	CloseTime  string `json:"close_time" yaml:"close_time" validate:"required,len=4,numeric"`
	CutoffTime string `json:"cutoff_time" yaml:"cutoff_time" validate:"required,len=4,numeric"`
	TimeZone   string `json:"time_zone" yaml:"time_zone" validate:"required,timezone"`
}

// DefaultMarketTiming is the NSE cash market session.
func DefaultMarketTiming() MarketTiming {
	return MarketTiming{
		StartTime:  "0915",
		CloseTime:  "1530",
		CutoffTime: "1600",
		TimeZone:   "Asia/Kolkata",
	}
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses a 24h "HHMM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// TimeOfDayOf extracts the wall-clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (t TimeOfDay) seconds() int { return t.Hour*3600 + t.Minute*60 + t.Second }

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.seconds() < o.seconds() }
func (t TimeOfDay) After(o TimeOfDay) bool { return t.seconds() > o.seconds() }

// Add shifts t by d, wrapping around midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	s := (t.seconds() + int(d/time.Second)) % 86400
	if s < 0 {
		s += 86400
	}
	return TimeOfDay{Hour: s / 3600, Minute: s % 3600 / 60, Second: s % 60}
}

// String renders t as "HHMM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d%02d", t.Hour, t.Minute)
}

// SessionPhase names where a time of day falls relative to the session.
type SessionPhase string

const (
	PhasePreOpen   SessionPhase = "pre_open"
	PhaseOpen      SessionPhase = "open"
	PhasePostClose SessionPhase = "post_close"
	PhaseSettled   SessionPhase = "settled"
)

// MarketSession holds the daily open, close and cutoff times in the
// exchange's time zone. It is the only place the package reads the clock.
type MarketSession struct {
	timing MarketTiming
	start  TimeOfDay
	close  TimeOfDay
	cutoff TimeOfDay
	loc    *time.Location
	clock  Clock
}

// NewMarketSession validates timing and builds a session. Times must satisfy
// start <= close <= cutoff. A nil clock reads the system clock.
func NewMarketSession(timing MarketTiming, clock Clock) (*MarketSession, error) {
	if err := validate.Struct(timing); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, &SessionConfigError{
				Field:  fe.Field(),
				Value:  fmt.Sprint(fe.Value()),
				Reason: fmt.Sprintf("failed %q check", fe.Tag()),
			}
		}
		return nil, fmt.Errorf("validate market timing: %w", err)
	}

	start, err := ParseTimeOfDay(timing.StartTime)
	if err != nil {
		return nil, &SessionConfigError{Field: "StartTime", Value: timing.StartTime, Reason: err.Error()}
	}
	closeAt, err := ParseTimeOfDay(timing.CloseTime)
	if err != nil {
		return nil, &SessionConfigError{Field: "CloseTime", Value: timing.CloseTime, Reason: err.Error()}
	}
	cutoff, err := ParseTimeOfDay(timing.CutoffTime)
	if err != nil {
		return nil, &SessionConfigError{Field: "CutoffTime", Value: timing.CutoffTime, Reason: err.Error()}
	}

	if closeAt.Before(start) {
		return nil, &SessionConfigError{Field: "CloseTime", Value: timing.CloseTime, Reason: "before start time " + timing.StartTime}
	}
	if cutoff.Before(closeAt) {
		return nil, &SessionConfigError{Field: "CutoffTime", Value: timing.CutoffTime, Reason: "before close time " + timing.CloseTime}
	}

	loc, err := time.LoadLocation(timing.TimeZone)
	if err != nil {
		return nil, &SessionConfigError{Field: "TimeZone", Value: timing.TimeZone, Reason: err.Error()}
	}

	if clock == nil {
		clock = SystemClock()
	}

	return &MarketSession{
		timing: timing,
		start:  start,
		close:  closeAt,
		cutoff: cutoff,
		loc:    loc,
		clock:  clock,
	}, nil
}

func (s *MarketSession) Timing() MarketTiming { return s.timing }
func (s *MarketSession) Location() *time.Location { return s.loc }
func (s *MarketSession) StartTime() TimeOfDay { return s.start }
func (s *MarketSession) CloseTime() TimeOfDay { return s.close }
func (s *MarketSession) CutoffTime() TimeOfDay { return s.cutoff }

// Instant returns the current instant in the session's time zone.
func (s *MarketSession) Instant() time.Time {
	return s.clock.Now().In(s.loc)
}

// Now returns today's date and the current time of day in the session's time zone.
func (s *MarketSession) Now(layout string) (CalendarDate, TimeOfDay) {
	now := s.Instant()
	return FromTime(now, layout), TimeOfDayOf(now)
}

// Today returns the current date in the session's time zone.
func (s *MarketSession) Today(layout string) CalendarDate {
	today, _ := s.Now(layout)
	return today
}

// InCutoffWindow reports whether t lies in [start, cutoff].
func (s *MarketSession) InCutoffWindow(t TimeOfDay) bool {
	return !t.Before(s.start) && !t.After(s.cutoff)
}

// BeforeCutoff reports whether t is strictly before the cutoff.
func (s *MarketSession) BeforeCutoff(t TimeOfDay) bool {
	return t.Before(s.cutoff)
}

// IsOpen reports whether t lies in [start, close).
func (s *MarketSession) IsOpen(t TimeOfDay) bool {
	return !t.Before(s.start) && t.Before(s.close)
}

// InAMOWindow reports whether t lies in the after-market order window [close+10m, cutoff].
func (s *MarketSession) InAMOWindow(t TimeOfDay) bool {
	return !t.Before(s.close.Add(amoOffset)) && !t.After(s.cutoff)
}

// Phase classifies t against the session times.
func (s *MarketSession) Phase(t TimeOfDay) SessionPhase {
	switch {
	case t.Before(s.start):
		return PhasePreOpen
	case t.Before(s.close):
		return PhaseOpen
	case t.Before(s.cutoff):
		return PhasePostClose
	default:
		return PhaseSettled
	}
}
