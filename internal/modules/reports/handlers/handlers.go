// Package handlers provides HTTP handlers for session reports.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/algotrade/tradecal/internal/modules/reports"
	"github.com/algotrade/tradecal/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SessionTrigger runs the session report outside its schedule
type SessionTrigger interface {
	Trigger(ctx context.Context, date string, force bool) (*reports.Report, error)
}

// RunHistory lists past deliveries
type RunHistory interface {
	Recent(limit int) ([]reports.Run, error)
}

// Handler handles report HTTP requests
type Handler struct {
	trigger SessionTrigger
	history RunHistory
	log     zerolog.Logger
}

// NewHandler creates a new report handler
func NewHandler(trigger SessionTrigger, history RunHistory, log zerolog.Logger) *Handler {
	return &Handler{
		trigger: trigger,
		history: history,
		log:     log.With().Str("handler", "reports").Logger(),
	}
}

// RegisterRoutes registers all report routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/session/run", h.HandleRunSessionReport)
		r.Get("/runs", h.HandleGetRuns)
	})
}

// HandleRunSessionReport handles POST /api/reports/session/run?date=&force=
// Builds and delivers the session report now
func (h *Handler) HandleRunSessionReport(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	report, err := h.trigger.Trigger(r.Context(), r.URL.Query().Get("date"), force)
	if err != nil && report == nil {
		var dfe *calendar.DateFormatError
		switch {
		case errors.As(err, &dfe):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, scheduler.ErrNoSession):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, scheduler.ErrAlreadyDelivered):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, calendar.ErrExhaustedCalendar):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			h.log.Error().Err(err).Msg("Session report failed")
			http.Error(w, "Failed to build session report", http.StatusBadGateway)
		}
		return
	}

	data := map[string]interface{}{
		"report_id":    report.ID,
		"session_date": report.SessionDate,
		"title":        report.Title,
		"sections":     len(report.Sections),
		"delivered":    err == nil,
	}
	if err != nil {
		data["error"] = err.Error()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetRuns handles GET /api/reports/runs?limit=
// Returns recent delivery attempts, newest first
func (h *Handler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.history.Recent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list report runs")
		http.Error(w, "Failed to list report runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []reports.Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"runs":  runs,
			"count": len(runs),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
