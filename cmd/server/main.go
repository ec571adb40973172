// Package main is the entry point for the tradecal service.
//
// tradecal resolves NSE trading days around the settlement cutoff, serves
// them over HTTP and delivers an end of session report to the configured
// channels on a market time zone schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/algotrade/tradecal/internal/config"
	"github.com/algotrade/tradecal/internal/di"
	calendarhandlers "github.com/algotrade/tradecal/internal/modules/calendar/handlers"
	reporthandlers "github.com/algotrade/tradecal/internal/modules/reports/handlers"
	"github.com/algotrade/tradecal/internal/server"
	"github.com/algotrade/tradecal/pkg/logger"
)

// getEnv retrieves an environment variable value, returning a fallback if the variable
// is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// main is the application entry point:
// 1. Loads configuration from environment variables
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Warms the holiday calendar
// 5. Starts the HTTP server and the scheduler
// 6. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	version := getEnv("VERSION", "dev")
	log.Info().Str("version", version).Str("market", cfg.Market).Msg("Starting tradecal")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// An exhausted or unreachable holiday list is logged, not fatal: the
	// refresh job and POST /api/calendar/refresh retry later.
	if cal, err := container.CalendarService.Calendar(ctx); err != nil {
		log.Error().Err(err).Msg("Holiday calendar unavailable at startup")
	} else {
		log.Info().
			Str("today", cal.Today().String()).
			Str("next_holiday", cal.NextHoliday().String()).
			Msg("Holiday calendar loaded")
	}

	systemHandlers := server.NewSystemHandlers(log, cfg.DataDir, cfg.XLSXDir, container.Databases(), container.Scheduler)
	systemHandlers.SetJobs(container.Jobs.All()...)

	srv := server.New(server.Config{
		Log:     log,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Version: version,
		System:  systemHandlers,
		Modules: []server.RouteRegistrar{
			calendarhandlers.NewHandler(container.CalendarService, cfg.ExpiryWeekday(), log),
			reporthandlers.NewHandler(container.Jobs.SessionReport, container.ReportRepo, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// waits for running jobs before the databases close
	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
