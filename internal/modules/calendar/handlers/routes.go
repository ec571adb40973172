package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all calendar routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/trading-day", h.HandleGetTradingDay)
		r.Get("/business-days", h.HandleGetBusinessDays)
		r.Get("/holidays", h.HandleGetHolidays)
		r.Get("/session", h.HandleGetSession)
		r.Get("/expiry", h.HandleGetExpiry)
		r.Post("/refresh", h.HandleRefresh)
	})
}
