package calendar

import (
	"fmt"
	"time"
)

// MarketCalendar bundles a named market with a resolver for one "as of" date.
type MarketCalendar struct {
	Market   string
	resolver *TradingDayResolver
}

// NewMarketCalendar parses today, anchors the holiday records to the session's
// current date and resolves today against them.
func NewMarketCalendar(market, today, layout string, records []HolidayRecord, session *MarketSession) (*MarketCalendar, error) {
	nominal, err := Parse(today, layout)
	if err != nil {
		return nil, err
	}

	cal, err := NewHolidayCalendar(records, layout, session.Today(layout))
	if err != nil {
		return nil, fmt.Errorf("%s holidays: %w", market, err)
	}

	return &MarketCalendar{
		Market:   market,
		resolver: NewTradingDayResolver(nominal, cal, session),
	}, nil
}

func (m *MarketCalendar) CurrDay() CalendarDate { return m.resolver.EffectiveDay() }
func (m *MarketCalendar) NextDay() CalendarDate { return m.resolver.NextBusinessDay() }
func (m *MarketCalendar) PrevDay() CalendarDate { return m.resolver.PreviousBusinessDay() }

func (m *MarketCalendar) Resolver() *TradingDayResolver { return m.resolver }

// ExpiryOnOrAfter returns the first weekday on or after from on which a
// derivatives contract expiring on weekday settles. An expiry that lands on
// a closed day moves back to the previous trading day.
func ExpiryOnOrAfter(cal *HolidayCalendar, from CalendarDate, weekday time.Weekday) CalendarDate {
	offset := (int(weekday) - int(from.Weekday()) + 7) % 7
	expiry := from.Add(offset)
	for !cal.IsTradingDay(expiry) {
		expiry = expiry.Subtract(1)
	}
	return expiry
}
