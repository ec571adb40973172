package calendar

// Resolution records how the effective day relates to the nominal date.
type Resolution int

const (
	// Unchanged keeps the nominal date as the effective day.
	Unchanged Resolution = iota
	// ShiftedBackward anchors a still-running "today" to the previous weekday.
	ShiftedBackward
)

func (r Resolution) String() string {
	switch r {
	case ShiftedBackward:
		return "shifted_backward"
	default:
		return "unchanged"
	}
}

// TradingDayResolver anchors business-day arithmetic to an effective day.
//
// Between the session start and the cutoff, today's session has not settled,
// so a query for today resolves to the previous weekday. At any other time,
// or for any other date, the nominal date is used as is. The effective day
// is fixed at construction and the resolver never mutates afterwards, so it
// is safe to share between goroutines.
type TradingDayResolver struct {
	nominal    CalendarDate
	effective  CalendarDate
	today      CalendarDate
	resolution Resolution
	calendar   *HolidayCalendar
	session    *MarketSession
}

// NewTradingDayResolver reads the session clock once and resolves nominal.
func NewTradingDayResolver(nominal CalendarDate, cal *HolidayCalendar, session *MarketSession) *TradingDayResolver {
	today, now := session.Now(nominal.Layout())
	effective, resolution := resolveEffectiveDay(nominal, today, now, session)

	return &TradingDayResolver{
		nominal:    nominal,
		effective:  effective,
		today:      today,
		resolution: resolution,
		calendar:   cal,
		session:    session,
	}
}

func resolveEffectiveDay(nominal, today CalendarDate, now TimeOfDay, session *MarketSession) (CalendarDate, Resolution) {
	tomorrow := nominal.AddBusinessDay()
	yesterday := nominal.SubtractBusinessDay()

	// The weekend skip must leave nominal between its neighbours.
	if nominal.After(tomorrow) && nominal.After(yesterday) ||
		nominal.Before(tomorrow) && nominal.Before(yesterday) {
		return nominal, Unchanged
	}

	if !nominal.Equal(today) || !session.InCutoffWindow(now) || !session.BeforeCutoff(now) {
		return nominal, Unchanged
	}

	return yesterday, ShiftedBackward
}

func (r *TradingDayResolver) Nominal() CalendarDate { return r.nominal }
func (r *TradingDayResolver) EffectiveDay() CalendarDate { return r.effective }
func (r *TradingDayResolver) Resolution() Resolution { return r.resolution }
func (r *TradingDayResolver) Calendar() *HolidayCalendar { return r.calendar }
func (r *TradingDayResolver) Session() *MarketSession { return r.session }

// Today is the session date observed at construction.
func (r *TradingDayResolver) Today() CalendarDate { return r.today }

// NextBusinessDay is the first trading day after the effective day.
// Each step scans the holiday entries, so it costs O(entries) rather than
// reading a cached pointer.
func (r *TradingDayResolver) NextBusinessDay() CalendarDate {
	return r.stepForward(r.effective)
}

// PreviousBusinessDay is the last completed trading day relative to the
// effective day. An effective day already in the past that is not a holiday
// entry is its own previous business day.
func (r *TradingDayResolver) PreviousBusinessDay() CalendarDate {
	if !r.calendar.Contains(r.effective) && r.effective.Before(r.today) {
		return r.effective
	}
	return r.stepBackward(r.effective)
}

// AddBusinessDays steps n trading days forward from the effective day.
// Negative n steps backward.
func (r *TradingDayResolver) AddBusinessDays(n int) CalendarDate {
	d := r.effective
	switch {
	case n > 0:
		for i := 0; i < n; i++ {
			d = r.stepForward(d)
		}
	case n < 0:
		for i := 0; i > n; i-- {
			d = r.stepBackward(d)
		}
	}
	return d
}

// SubtractBusinessDays steps n trading days backward from the effective day.
// Negative n steps forward.
func (r *TradingDayResolver) SubtractBusinessDays(n int) CalendarDate {
	d := r.effective
	switch {
	case n > 0:
		for i := 0; i < n; i++ {
			d = r.stepBackward(d)
		}
	case n < 0:
		for i := 0; i > n; i-- {
			d = r.stepForward(d)
		}
	}
	return d
}

// stepForward skips weekends and every consecutive non-working entry, then
// prefers a working entry that opens earlier.
func (r *TradingDayResolver) stepForward(from CalendarDate) CalendarDate {
	candidate := from.AddBusinessDay()
	for r.calendar.IsHoliday(candidate) {
		candidate = candidate.AddBusinessDay()
	}
	if working, ok := r.calendar.FirstWorkingBetween(from, candidate); ok {
		return working
	}
	return candidate
}

func (r *TradingDayResolver) stepBackward(from CalendarDate) CalendarDate {
	candidate := from.SubtractBusinessDay()
	for r.calendar.IsHoliday(candidate) {
		candidate = candidate.SubtractBusinessDay()
	}
	if working, ok := r.calendar.LastWorkingBetween(candidate, from); ok {
		return working
	}
	return candidate
}
