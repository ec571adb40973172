package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// HolidaySource supplies the raw exchange holiday list.
type HolidaySource interface {
	Holidays(ctx context.Context) ([]HolidayRecord, error)
}

// StaticSource serves a fixed list.
type StaticSource []HolidayRecord

func (s StaticSource) Holidays(context.Context) ([]HolidayRecord, error) {
	return append([]HolidayRecord(nil), s...), nil
}

// ChainSource returns the first non-empty list among its sources.
type ChainSource struct {
	sources []HolidaySource
	log     zerolog.Logger
}

// NewChainSource tries sources in the given order.
func NewChainSource(log zerolog.Logger, sources ...HolidaySource) *ChainSource {
	return &ChainSource{
		sources: sources,
		log:     log.With().Str("component", "holiday_chain").Logger(),
	}
}

func (c *ChainSource) Holidays(ctx context.Context) ([]HolidayRecord, error) {
	var errs []error
	for i, src := range c.sources {
		records, err := src.Holidays(ctx)
		if err != nil {
			c.log.Warn().Err(err).Int("source", i).Msg("Holiday source failed, trying next")
			errs = append(errs, err)
			continue
		}
		if len(records) == 0 {
			c.log.Warn().Int("source", i).Msg("Holiday source returned no records, trying next")
			continue
		}
		return records, nil
	}
	if len(errs) == 0 {
		return nil, errors.New("no holiday source returned records")
	}
	return nil, fmt.Errorf("all holiday sources failed: %w", errors.Join(errs...))
}

// Adhoc lists one-off exchange closures and special sessions announced after
// the published holiday list.
type Adhoc struct {
	Closed []string
	Open   []string
}

func (a Adhoc) empty() bool { return len(a.Closed) == 0 && len(a.Open) == 0 }

// merge adds adhoc days missing from records and orders the result by date.
func (a Adhoc) merge(records []HolidayRecord, layout string) ([]HolidayRecord, error) {
	if a.empty() {
		return records, nil
	}

	type dated struct {
		rec  HolidayRecord
		date CalendarDate
	}
	all := make([]dated, 0, len(records)+len(a.Closed)+len(a.Open))
	seen := make(map[string]bool, cap(all))
	add := func(rec HolidayRecord) error {
		d, err := Parse(rec.TradeDay, layout)
		if err != nil {
			return err
		}
		if seen[d.String()] {
			return nil
		}
		seen[d.String()] = true
		all = append(all, dated{rec: rec, date: d})
		return nil
	}

	for _, rec := range records {
		if err := add(rec); err != nil {
			return nil, err
		}
	}
	for _, day := range a.Closed {
		if err := add(HolidayRecord{TradeDay: day, Description: "Adhoc closure"}); err != nil {
			return nil, fmt.Errorf("adhoc closure: %w", err)
		}
	}
	for _, day := range a.Open {
		if err := add(HolidayRecord{TradeDay: day, Description: "Adhoc trading session" + WorkingMarker}); err != nil {
			return nil, fmt.Errorf("adhoc session: %w", err)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].date.Before(all[j].date) })

	out := make([]HolidayRecord, len(all))
	for i, d := range all {
		out[i] = d.rec
	}
	return out, nil
}

type calendarKey struct {
	version uint64
	today   string
}

// Service hands out resolvers backed by a cached holiday calendar.
// The calendar is rebuilt when the holiday list is refreshed or the session date rolls over.
type Service struct {
	source  HolidaySource
	session *MarketSession
	layout  string
	adhoc   Adhoc
	log     zerolog.Logger

	mu      sync.Mutex
	records []HolidayRecord
	version uint64
	cached  *HolidayCalendar
	key     calendarKey
}

// NewService creates a calendar service
func NewService(source HolidaySource, session *MarketSession, layout string, adhoc Adhoc, log zerolog.Logger) *Service {
	if layout == "" {
		layout = DefaultLayout
	}
	return &Service{
		source:  source,
		session: session,
		layout:  layout,
		adhoc:   adhoc,
		log:     log.With().Str("service", "calendar").Logger(),
	}
}

func (s *Service) Session() *MarketSession { return s.session }
func (s *Service) Layout() string { return s.layout }

// Calendar returns the holiday calendar anchored to the session's current date.
func (s *Service) Calendar(ctx context.Context) (*HolidayCalendar, error) {
	today := s.session.Today(s.layout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records == nil {
		if err := s.loadLocked(ctx); err != nil {
			return nil, err
		}
	}

	key := calendarKey{version: s.version, today: today.String()}
	if s.cached != nil && s.key == key {
		return s.cached, nil
	}

	cal, err := NewHolidayCalendar(s.records, s.layout, today)
	if err != nil {
		return nil, err
	}
	s.cached, s.key = cal, key

	s.log.Debug().
		Str("today", today.String()).
		Str("next_holiday", cal.NextHoliday().String()).
		Str("next_working", cal.NextWorking().String()).
		Msg("Holiday calendar rebuilt")

	return cal, nil
}

// Refresh refetches the holiday list. The previous list stays in use if the fetch fails.
func (s *Service) Refresh(ctx context.Context) (*HolidayCalendar, error) {
	s.mu.Lock()
	err := s.loadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Calendar(ctx)
}

func (s *Service) loadLocked(ctx context.Context) error {
	records, err := s.source.Holidays(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch holidays: %w", err)
	}
	records, err = s.adhoc.merge(records, s.layout)
	if err != nil {
		return fmt.Errorf("failed to merge adhoc days: %w", err)
	}

	s.records = records
	s.version++
	s.cached = nil

	s.log.Info().Int("records", len(records)).Uint64("version", s.version).Msg("Holiday list loaded")
	return nil
}

// Resolver resolves date (the session's current date when empty).
func (s *Service) Resolver(ctx context.Context, date string) (*TradingDayResolver, error) {
	var nominal CalendarDate
	if date == "" {
		nominal = s.session.Today(s.layout)
	} else {
		var err error
		if nominal, err = Parse(date, s.layout); err != nil {
			return nil, err
		}
	}
	return s.ResolverFor(ctx, nominal)
}

// ResolverFor resolves an already parsed date.
func (s *Service) ResolverFor(ctx context.Context, nominal CalendarDate) (*TradingDayResolver, error) {
	cal, err := s.Calendar(ctx)
	if err != nil {
		return nil, err
	}
	return NewTradingDayResolver(nominal, cal, s.session), nil
}
