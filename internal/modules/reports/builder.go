package reports

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/algotrade/tradecal/internal/clients/nse"
	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/algotrade/tradecal/internal/modules/technicals"
	"github.com/rs/zerolog"
)

// Section headings
const (
	HeadingCalendar = "Trading calendar"
	HeadingHolidays = "Upcoming holidays"
	HeadingPivots   = "Index pivots"
	HeadingTrend    = "Index trend"
	HeadingOptions  = "Option chain"
)

const upcomingHolidays = 5

// one year of daily bars covers the longest moving average
const trendLookbackYears = 1

// MarketData supplies index and derivatives data for the report
type MarketData interface {
	IndexQuotes(ctx context.Context) ([]nse.IndexQuote, error)
	OptionChain(ctx context.Context, symbol string) (*nse.OptionChain, error)
	IndexHistory(ctx context.Context, index string, from, to time.Time) ([]nse.IndexBar, error)
}

// Builder assembles reports from the calendar and market data
type Builder struct {
	market        string
	data          MarketData
	expiryDay     time.Weekday
	optionSymbols []string
	log           zerolog.Logger
}

// NewBuilder creates a report builder
func NewBuilder(market string, data MarketData, expiryDay time.Weekday, optionSymbols []string, log zerolog.Logger) *Builder {
	return &Builder{
		market:        market,
		data:          data,
		expiryDay:     expiryDay,
		optionSymbols: optionSymbols,
		log:           log.With().Str("component", "report_builder").Logger(),
	}
}

// SessionReport builds the session report for the resolver's trading day.
// Index quotes are required; history and option chains are best effort.
func (b *Builder) SessionReport(ctx context.Context, r *calendar.TradingDayResolver) (*Report, error) {
	report := NewReport(KindSession, r.EffectiveDay().String(),
		fmt.Sprintf("%s session report %s", b.market, r.EffectiveDay()),
		r.Session().Instant())

	report.Sections = append(report.Sections, b.CalendarSection(r), HolidaySection(r.Calendar()))

	quotes, err := b.data.IndexQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index quotes: %w", err)
	}
	report.Sections = append(report.Sections, PivotSection(quotes, r.NextBusinessDay()))

	if trend := b.trendSection(ctx, quotes, r.EffectiveDay()); len(trend.Rows) > 0 {
		report.Sections = append(report.Sections, trend)
	}

	if len(b.optionSymbols) > 0 {
		report.Sections = append(report.Sections, b.optionSection(ctx))
	}

	b.log.Info().
		Str("report_id", report.ID).
		Str("session_date", report.SessionDate).
		Int("indices", len(quotes)).
		Msg("Session report built")

	return report, nil
}

// CalendarSection describes the resolved trading day
func (b *Builder) CalendarSection(r *calendar.TradingDayResolver) Section {
	s := Section{Heading: HeadingCalendar, Columns: []string{"Field", "Value"}}

	_, now := r.Session().Now(r.Nominal().Layout())
	effective := r.EffectiveDay().String()
	if r.Resolution() == calendar.ShiftedBackward {
		effective += " (session in progress)"
	}

	s.AddRow("Market date", r.Nominal().String())
	s.AddRow("Effective day", effective)
	s.AddRow("Next business day", r.NextBusinessDay().String())
	s.AddRow("Previous business day", r.PreviousBusinessDay().String())
	s.AddRow("Session phase", string(r.Session().Phase(now)))
	s.AddRow("Next weekly expiry", calendar.ExpiryOnOrAfter(r.Calendar(), r.EffectiveDay(), b.expiryDay).String())
	return s
}

// HolidaySection lists the next holidays and special sessions
func HolidaySection(cal *calendar.HolidayCalendar) Section {
	s := Section{Heading: HeadingHolidays, Columns: []string{"Date", "Day", "Description", "Session"}}
	for _, e := range cal.Upcoming(upcomingHolidays) {
		session := "closed"
		if e.Working {
			session = "open"
		}
		s.AddRow(e.Date.String(), e.Date.Weekday().String(), e.Description, session)
	}
	return s
}

// PivotSection computes next session pivots from each index's day bar
func PivotSection(quotes []nse.IndexQuote, next calendar.CalendarDate) Section {
	s := Section{
		Heading: HeadingPivots,
		Columns: []string{"Index", "Close", "Chg %", "Pivot", "BC", "TC", "R1", "R2", "R3", "S1", "S2", "S3", "CPR", "For"},
	}

	for _, q := range quotes {
		p := technicals.StandardPivots(technicals.OHLC{Open: q.Open, High: q.High, Low: q.Low, Close: q.Last})
		s.AddRow(
			q.Index,
			num(q.Last),
			num(q.PercentChange),
			num(p.Pivot),
			num(p.BC),
			num(p.TC),
			num(p.Resistances[0]),
			num(p.Resistances[1]),
			num(p.Resistances[2]),
			num(p.Supports[0]),
			num(p.Supports[1]),
			num(p.Supports[2]),
			p.CPR,
			next.String(),
		)
	}
	return s
}

func (b *Builder) trendSection(ctx context.Context, quotes []nse.IndexQuote, asOf calendar.CalendarDate) Section {
	s := Section{
		Heading: HeadingTrend,
		Columns: []string{"Index", "Close", "RSI", "EMA20", "EMA50", "EMA200", "Crossover"},
	}

	to := asOf.Time()
	from := to.AddDate(-trendLookbackYears, 0, 0)
	for _, q := range quotes {
		bars, err := b.data.IndexHistory(ctx, q.Index, from, to)
		if err != nil {
			b.log.Warn().Err(err).Str("index", q.Index).Msg("Skipping index trend")
			continue
		}

		trend := technicals.TrendOf(nse.Closes(bars))
		s.AddRow(
			q.Index,
			num(q.Last),
			level(trend.RSI, trend.HasRSI),
			average(trend.Averages, "EMA20"),
			average(trend.Averages, "EMA50"),
			average(trend.Averages, "EMA200"),
			string(trend.Crossover),
		)
	}
	return s
}

func (b *Builder) optionSection(ctx context.Context) Section {
	s := Section{
		Heading: HeadingOptions,
		Columns: []string{"Symbol", "Expiry", "Spot", "PCR", "Verdict", "Max Call OI", "Max Put OI", "Support", "Resistance"},
	}

	for _, symbol := range b.optionSymbols {
		oc, err := b.data.OptionChain(ctx, symbol)
		if err != nil {
			b.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping option chain")
			continue
		}
		expiry, strikes, err := oc.Expiry(0)
		if err != nil {
			b.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping option chain")
			continue
		}

		rows := StrikeRows(strikes)
		verdict := "n/a"
		pcrText := "n/a"
		if pcr, ok := technicals.PCR(rows); ok {
			pcrText = num(pcr)
			verdict = technicals.PCRVerdict(pcr)
		}

		levels := technicals.SupportResistance(rows, oc.Underlying)
		s.AddRow(
			symbol,
			expiry,
			num(oc.Underlying),
			pcrText,
			verdict,
			num(levels.MaxCallStrike),
			num(levels.MaxPutStrike),
			level(levels.Support, levels.HasSupport),
			level(levels.Resistance, levels.HasResistance),
		)
	}
	return s
}

// StrikeRows converts feed strikes to indicator input; missing legs count as zero OI
func StrikeRows(strikes []nse.OptionStrike) []technicals.StrikeRow {
	rows := make([]technicals.StrikeRow, 0, len(strikes))
	for _, st := range strikes {
		row := technicals.StrikeRow{Strike: st.StrikePrice}
		if st.CE != nil {
			row.CallOI = st.CE.OpenInterest
			row.CallChangeOI = st.CE.ChangeInOpenInterest
		}
		if st.PE != nil {
			row.PutOI = st.PE.OpenInterest
			row.PutChangeOI = st.PE.ChangeInOpenInterest
		}
		rows = append(rows, row)
	}
	return rows
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func level(v float64, ok bool) string {
	if !ok {
		return "none"
	}
	return num(v)
}

func average(averages map[string]float64, key string) string {
	v, ok := averages[key]
	if !ok {
		return "n/a"
	}
	return num(v)
}
