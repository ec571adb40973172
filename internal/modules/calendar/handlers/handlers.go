// Package handlers provides HTTP handlers for trading calendar queries.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/rs/zerolog"
)

const defaultHolidayLimit = 10

// CalendarService is the calendar surface the handlers need
type CalendarService interface {
	Calendar(ctx context.Context) (*calendar.HolidayCalendar, error)
	Refresh(ctx context.Context) (*calendar.HolidayCalendar, error)
	Resolver(ctx context.Context, date string) (*calendar.TradingDayResolver, error)
	Session() *calendar.MarketSession
	Layout() string
}

// Handler handles trading calendar HTTP requests
type Handler struct {
	service   CalendarService
	expiryDay time.Weekday
	log       zerolog.Logger
}

// NewHandler creates a new calendar handler. expiryDay is the default weekly expiry weekday.
func NewHandler(service CalendarService, expiryDay time.Weekday, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		expiryDay: expiryDay,
		log:       log.With().Str("handler", "calendar").Logger(),
	}
}

// HandleGetTradingDay handles GET /api/calendar/trading-day?date=
// Returns the effective trading day for date (today when omitted) with its neighbours
func (h *Handler) HandleGetTradingDay(w http.ResponseWriter, r *http.Request) {
	resolver, err := h.service.Resolver(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	nominal := resolver.Nominal()
	cal := resolver.Calendar()

	data := map[string]interface{}{
		"date":           nominal,
		"effective_day":  resolver.EffectiveDay(),
		"resolution":     resolver.Resolution().String(),
		"next":           resolver.NextBusinessDay(),
		"previous":       resolver.PreviousBusinessDay(),
		"is_trading_day": cal.IsTradingDay(nominal),
	}
	if entry, ok := cal.Entry(nominal); ok {
		data["holiday"] = entryJSON(entry)
	}

	h.writeJSON(w, http.StatusOK, envelope(data))
}

// maxBusinessDayOffset bounds business-days queries to about a year of steps
const maxBusinessDayOffset = 366

// HandleGetBusinessDays handles GET /api/calendar/business-days?date=&offset=
// Steps offset business days from date; negative offsets step backward
func (h *Handler) HandleGetBusinessDays(w http.ResponseWriter, r *http.Request) {
	offset := 1
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "offset must be an integer", http.StatusBadRequest)
			return
		}
		if parsed < -maxBusinessDayOffset || parsed > maxBusinessDayOffset {
			http.Error(w, fmt.Sprintf("offset must be between -%d and %d", maxBusinessDayOffset, maxBusinessDayOffset), http.StatusBadRequest)
			return
		}
		offset = parsed
	}

	resolver, err := h.service.Resolver(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"date":          resolver.Nominal(),
		"effective_day": resolver.EffectiveDay(),
		"offset":        offset,
		"result":        resolver.AddBusinessDays(offset),
	}))
}

// HandleGetHolidays handles GET /api/calendar/holidays?limit=
// Returns upcoming holidays and special sessions
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	limit := defaultHolidayLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cal, err := h.service.Calendar(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	upcoming := cal.Upcoming(limit)
	holidays := make([]map[string]interface{}, len(upcoming))
	for i, e := range upcoming {
		holidays[i] = entryJSON(e)
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"today":        cal.Today(),
		"next_holiday": cal.NextHoliday(),
		"next_working": cal.NextWorking(),
		"holidays":     holidays,
		"count":        len(holidays),
	}))
}

// HandleGetSession handles GET /api/calendar/session
// Returns the session timings and where the market clock currently is
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session := h.service.Session()
	today, now := session.Now(h.service.Layout())

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"timezone":   session.Location().String(),
		"start":      session.StartTime().String(),
		"close":      session.CloseTime().String(),
		"cutoff":     session.CutoffTime().String(),
		"now":        session.Instant().Format(time.RFC3339),
		"today":      today,
		"phase":      session.Phase(now),
		"open":       session.IsOpen(now),
		"amo_window": session.InAMOWindow(now),
	}))
}

// HandleGetExpiry handles GET /api/calendar/expiry?date=&weekday=
// Returns the first open expiry weekday on or after date
func (h *Handler) HandleGetExpiry(w http.ResponseWriter, r *http.Request) {
	weekday := h.expiryDay
	if raw := r.URL.Query().Get("weekday"); raw != "" {
		parsed, ok := parseWeekday(raw)
		if !ok {
			http.Error(w, "weekday must be a day name such as Thursday", http.StatusBadRequest)
			return
		}
		weekday = parsed
	}

	resolver, err := h.service.Resolver(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"date":    resolver.Nominal(),
		"weekday": weekday.String(),
		"expiry":  calendar.ExpiryOnOrAfter(resolver.Calendar(), resolver.Nominal(), weekday),
	}))
}

// HandleRefresh handles POST /api/calendar/refresh
// Refetches the holiday list
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	cal, err := h.service.Refresh(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info().Int("entries", cal.Len()).Msg("Holiday list refreshed on request")

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"entries":      cal.Len(),
		"next_holiday": cal.NextHoliday(),
		"next_working": cal.NextWorking(),
	}))
}

func entryJSON(e calendar.HolidayEntry) map[string]interface{} {
	return map[string]interface{}{
		"date":        e.Date,
		"weekday":     e.WeekDay.String(),
		"description": e.Description,
		"working":     e.Working,
	}
}

func parseWeekday(raw string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(raw, wd.String()) || strings.EqualFold(raw, wd.String()[:3]) {
			return wd, true
		}
	}
	return 0, false
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeError maps calendar errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var dfe *calendar.DateFormatError
	switch {
	case errors.As(err, &dfe):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, calendar.ErrExhaustedCalendar):
		h.log.Error().Err(err).Msg("Holiday list exhausted")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.log.Error().Err(err).Msg("Calendar request failed")
		http.Error(w, "Failed to resolve calendar", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
