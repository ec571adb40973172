// Package di provides dependency injection for clients and services.
package di

import (
	"context"
	"fmt"

	"github.com/algotrade/tradecal/internal/clientdata"
	"github.com/algotrade/tradecal/internal/clients/holidayfile"
	"github.com/algotrade/tradecal/internal/clients/nse"
	"github.com/algotrade/tradecal/internal/config"
	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/algotrade/tradecal/internal/modules/reports"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// InitializeServices creates repositories, clients, the calendar service and the report pipeline
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Repositories
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())
	container.ReportRepo = reports.NewRepository(container.ReportsDB.Conn())

	// NSE feed
	container.NSEClient = nse.NewClient(nse.Config{
		BaseURL:   cfg.NSE.BaseURL,
		Segment:   cfg.NSE.HolidaySegment,
		Indices:   cfg.NSE.Indices,
		RateLimit: cfg.NSE.RateLimit,
	}, container.ClientDataRepo, log)

	// Calendar: the feed first, then the offline holiday file
	sources := []calendar.HolidaySource{container.NSEClient}
	if cfg.NSE.HolidayFile != "" {
		sources = append(sources, holidayfile.NewSource(cfg.NSE.HolidayFile, log))
	}

	session, err := calendar.NewMarketSession(cfg.MarketTiming, nil)
	if err != nil {
		return fmt.Errorf("failed to create market session: %w", err)
	}
	container.Session = session

	container.CalendarService = calendar.NewService(
		calendar.NewChainSource(log, sources...),
		session,
		cfg.DateFormat,
		calendar.Adhoc{Closed: cfg.AdhocClosed, Open: cfg.AdhocOpen},
		log,
	)

	// Reports
	container.ReportBuilder = reports.NewBuilder(cfg.Market, container.NSEClient, cfg.ExpiryWeekday(), cfg.NSE.OptionSymbols, log)

	notifiers, err := buildNotifiers(ctx, cfg, log)
	if err != nil {
		return err
	}
	container.Dispatcher = reports.NewDispatcher(notifiers, container.ReportRepo, log)

	log.Info().
		Strs("channels", container.Dispatcher.Channels()).
		Int("holiday_sources", len(sources)).
		Msg("Services initialized")

	return nil
}

// buildNotifiers creates a notifier for every configured channel
func buildNotifiers(ctx context.Context, cfg *config.Config, log zerolog.Logger) ([]reports.Notifier, error) {
	var notifiers []reports.Notifier

	if cfg.Telegram.Enabled() {
		notifiers = append(notifiers, reports.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.Signature, log))
	}

	if cfg.Sheets.Enabled() {
		sheets, err := reports.NewSheetsNotifier(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, log,
			option.WithCredentialsFile(cfg.Sheets.CredentialsFile))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets notifier: %w", err)
		}
		notifiers = append(notifiers, sheets)
	}

	if cfg.XLSXDir != "" {
		notifiers = append(notifiers, reports.NewXLSXNotifier(cfg.XLSXDir, log))
	}

	if cfg.Archive.Enabled() {
		archiver, err := reports.NewS3Archiver(ctx, reports.ArchiveConfig{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			Prefix:          cfg.Archive.Prefix,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create report archiver: %w", err)
		}
		notifiers = append(notifiers, archiver)
	}

	return notifiers, nil
}
